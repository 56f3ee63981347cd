/*
Package notify delivers user-facing events raised by the engine.

EVENTS:
  - achievement_unlocked: an achievement crossed its threshold
  - shift_still_active:   a tracked shift has run past the reminder threshold
  - goal_digest:          scheduled earnings against the daily, weekly and
                          monthly goals

Delivery is best effort. A Notifier error is logged by the caller and never
rolls back the state change that produced the event.

IMPLEMENTATIONS:
  - LogNotifier:  writes events to a slog.Logger
  - AMQPNotifier: publishes JSON events to a RabbitMQ queue (amqp.go)
  - Multi:        fans out to several notifiers
*/
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventShiftStillActive    EventType = "shift_still_active"
	EventGoalDigest          EventType = "goal_digest"
)

type Event struct {
	Type    EventType         `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
	Data    map[string]string `json:"data,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// =============================================================================
// LOG NOTIFIER
// =============================================================================

type LogNotifier struct {
	Logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, e Event) error {
	attrs := []any{"type", e.Type, "title", e.Title}
	for k, v := range e.Data {
		attrs = append(attrs, k, v)
	}
	n.Logger.InfoContext(ctx, e.Message, attrs...)
	return nil
}

// =============================================================================
// FAN-OUT
// =============================================================================

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// RECORDER - Keeps events in memory
// =============================================================================

// Recorder stores every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
