package entity

import "time"

type ShowFrequency string

const (
	ShowOnce    ShowFrequency = "once"
	ShowSession ShowFrequency = "session"
	ShowAlways  ShowFrequency = "always"
)

type TargetAudience string

const (
	AudienceAll       TargetAudience = "all"
	AudienceNew       TargetAudience = "new_visitors"
	AudienceReturning TargetAudience = "returning_visitors"
)

// PageAll matches every page when present in DisplayRules.Pages.
const PageAll = "all"

type DisplayRules struct {
	Pages          []string       `json:"pages"`
	DelaySeconds   int            `json:"delay"`
	ShowFrequency  ShowFrequency  `json:"showFrequency"`
	TargetAudience TargetAudience `json:"targetAudience"`
	StartDate      string         `json:"startDate,omitempty"`
	EndDate        string         `json:"endDate,omitempty"`
}

// Promotion is an immutable snapshot taken by one fetch.
type Promotion struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Message      string       `json:"message"`
	ButtonText   string       `json:"buttonText"`
	ButtonLink   string       `json:"buttonLink"`
	ImageURL     *string      `json:"imageUrl,omitempty"`
	IsActive     bool         `json:"isActive"`
	DisplayRules DisplayRules `json:"displayRules"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Frequency returns the cap policy, defaulting to ShowOnce like the admin form does.
func (p Promotion) Frequency() ShowFrequency {
	switch p.DisplayRules.ShowFrequency {
	case ShowSession, ShowAlways:
		return p.DisplayRules.ShowFrequency
	default:
		return ShowOnce
	}
}

// ParseRuleDate accepts RFC3339 timestamps and bare dates (UTC midnight).
func ParseRuleDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
