// internal/events/types.go
package events

import (
	"time"

	"github.com/bonkwatch/letsbonk-bot/internal/resolver"
)

// EventType represents the type of event.
type EventType string

const (
	// Pipeline events
	TokenDetected       EventType = "token.detected"
	NameResolved        EventType = "token.name_resolved"
	ResolutionExhausted EventType = "token.resolution_exhausted"
	KeywordMatched      EventType = "token.keyword_matched"

	// Notification events
	NotificationSent   EventType = "notification.sent"
	NotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }

// TokenDetectedEvent is emitted when the listener observes a new mint.
type TokenDetectedEvent struct {
	BaseEvent
	TokenMint    string
	Signature    string
	DiscoveredAt time.Time
}

// NameResolvedEvent is emitted when the cascade produces a confident name.
type NameResolvedEvent struct {
	BaseEvent
	TokenMint  string
	Name       string
	Source     resolver.Source
	Confidence float64
	Attempt    int // 0 for the first pass, then the retry attempt number
}

// ResolutionExhaustedEvent is emitted when the retry budget runs out and the
// address is permanently left unresolved.
type ResolutionExhaustedEvent struct {
	BaseEvent
	TokenMint string
	Attempts  int
}

// KeywordMatchedEvent is emitted when a resolved name matches a keyword.
type KeywordMatchedEvent struct {
	BaseEvent
	TokenMint string
	Name      string
	Keyword   string
}

// NotificationSentEvent is emitted after a successful delivery.
type NotificationSentEvent struct {
	BaseEvent
	TokenMint string
	Keyword   string
}

// NotificationFailedEvent is emitted when delivery fails; delivery is not
// retried.
type NotificationFailedEvent struct {
	BaseEvent
	TokenMint string
	Keyword   string
	Error     error
}
