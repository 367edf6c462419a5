package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// VisitorSession identifies one tab lifetime of one visitor.
type VisitorSession struct {
	SessionID string    `json:"sessionId"`
	VisitorID string    `json:"visitorId"`
	Returning bool      `json:"returning"`
	StartedAt time.Time `json:"startedAt"`
}

// NewVisitorSession starts a fresh session. An empty visitorID means the
// visitor is new and gets a generated id.
func NewVisitorSession(visitorID string, now time.Time) VisitorSession {
	s := VisitorSession{
		SessionID: ulid.Make().String(),
		VisitorID: visitorID,
		Returning: visitorID != "",
		StartedAt: now.UTC(),
	}
	if s.VisitorID == "" {
		s.VisitorID = uuid.NewString()
	}
	return s
}
