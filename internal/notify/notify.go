package notify

import (
	"context"
	"time"

	"github.com/Iron-Ham/taskwatch/internal/errors"
)

// Kind identifies what a notification is about.
type Kind string

const (
	KindApproaching Kind = "approaching"
	KindOverdue     Kind = "overdue"
	KindMeeting     Kind = "meeting"
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Notification is a user-facing alert emitted by the deadline monitor.
// EntityID is a task id for approaching and overdue notifications and a
// meeting id for meeting reminders.
type Notification struct {
	Kind     Kind
	EntityID int64
	Title    string
	Message  string
	Urgent   bool
	At       time.Time
}

// Sink delivers notifications. Implementations must be safe for
// concurrent use.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, n Notification) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// MultiSink delivers to every sink in order. All sinks are attempted; the
// returned error joins the individual failures.
type MultiSink []Sink

// Deliver implements Sink.
func (m MultiSink) Deliver(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errors.Join(append([]error{errors.ErrDeliveryFailed}, errs...)...), "multi sink")
}
