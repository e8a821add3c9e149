package event

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

const AuthEventsQueue = "auth_events"

type AuthEventType string

const (
	LoginSucceeded   AuthEventType = "login.succeeded"
	LoginFailed      AuthEventType = "login.failed"
	RefreshSucceeded AuthEventType = "refresh.succeeded"
	RefreshFailed    AuthEventType = "refresh.failed"
	LoggedOut        AuthEventType = "logout"
	AccessDenied     AuthEventType = "access.denied"
)

// AuthEvent is the message body published to AuthEventsQueue.
type AuthEvent struct {
	ID         string        `json:"id"`
	Type       AuthEventType `json:"type"`
	UserID     string        `json:"user_id,omitempty"`
	Username   string        `json:"username,omitempty"`
	IPAddress  string        `json:"ip_address,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	Operation  string        `json:"operation,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewAuthEvent stamps an event with a ULID and the current time.
func NewAuthEvent(eventType AuthEventType) AuthEvent {
	now := time.Now().UTC()
	return AuthEvent{
		ID:         ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Type:       eventType,
		OccurredAt: now,
	}
}
