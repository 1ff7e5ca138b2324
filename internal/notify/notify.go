// Package notify fans pipeline events out to chat platforms. Delivery is
// best effort: a failing sink is logged and never blocks the operation
// that produced the event.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventType classifies outbound pipeline events.
type EventType string

const (
	EventCardCreated   EventType = "card_created"
	EventCardCompleted EventType = "card_completed"
	EventStalledDigest EventType = "stalled_digest"
)

// Severity colors, shared by the Slack and Discord sinks.
const (
	ColorInfo    = "#439fe0"
	ColorSuccess = "#36a64f"
	ColorWarning = "#daa038"
)

// Event is a pipeline notification formatted for chat delivery.
type Event struct {
	Type      EventType
	TenantID  string
	Title     string
	Body      string
	Color     string
	Timestamp time.Time
}

// Sink delivers events to one chat platform.
type Sink interface {
	// Name identifies the platform in logs.
	Name() string

	// Send delivers the event. Errors are reported to the caller for
	// logging only; they must not carry retry obligations.
	Send(ctx context.Context, e Event) error
}

// Notifier fans events out to every configured sink.
type Notifier struct {
	sinks []Sink
	log   *zap.Logger
}

// New builds a Notifier. A Notifier with no sinks is valid and silently
// drops events.
func New(log *zap.Logger, sinks ...Sink) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{sinks: sinks, log: log}
}

// Publish sends the event to every sink, logging failures and moving on.
func (n *Notifier) Publish(ctx context.Context, e Event) {
	if n == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	for _, s := range n.sinks {
		if err := s.Send(ctx, e); err != nil {
			n.log.Warn("notification delivery failed",
				zap.String("sink", s.Name()),
				zap.String("event", string(e.Type)),
				zap.String("tenant_id", e.TenantID),
				zap.Error(err))
			continue
		}
		n.log.Debug("notification delivered",
			zap.String("sink", s.Name()),
			zap.String("event", string(e.Type)))
	}
}
