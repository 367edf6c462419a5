package entity

import "time"

type EventType string

const (
	EventView  EventType = "view"
	EventClick EventType = "click"
	EventClose EventType = "close"
)

// Close reasons.
const (
	CloseAutoHide = "auto_hide"
	CloseManual   = "manual"
)

type EventMetadata struct {
	Timestamp       time.Time `json:"timestamp"`
	Page            string    `json:"page"`
	TotalCandidates int       `json:"totalPopups"`
	CandidateIndex  int       `json:"popupIndex"`
	SessionID       string    `json:"sessionId"`
	VisitorID       string    `json:"visitorId"`
	Reason          string    `json:"reason,omitempty"`
	TargetURL       string    `json:"targetUrl,omitempty"`
	ButtonText      string    `json:"buttonText,omitempty"`
}

type EngagementEvent struct {
	ID          string        `json:"id"`
	PromotionID string        `json:"promotionId"`
	Type        EventType     `json:"type"`
	Metadata    EventMetadata `json:"metadata"`
}
