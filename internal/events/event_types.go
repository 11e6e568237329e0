package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded     EventType = "login_succeeded"
	EventLoginFailed        EventType = "login_failed"
	EventLoginLocked        EventType = "login_locked"
	EventAccessDenied       EventType = "access_denied"
	EventAuthoritiesChanged EventType = "authorities_changed"
)

// Actor identifies who triggered an event. SubjectID is nil for anonymous callers.
type Actor struct {
	SubjectID *int64 `json:"subject_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Event represents an audit event emitted by the auth layer.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason   string `json:"reason"`
	Failures int64  `json:"failures"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Method string `json:"method"`
	Route  string `json:"route"`
	Policy string `json:"policy"`
}

// AuthoritiesChangedPayload payload.
type AuthoritiesChangedPayload struct {
	UserID      int64              `json:"user_id"`
	Authorities []domain.Authority `json:"authorities"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
