package notify

import (
	"context"

	"github.com/Iron-Ham/taskwatch/internal/logging"
)

// LogSink records notifications as structured log entries. Urgent
// notifications are logged at warn level.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a LogSink writing to logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent("notify")}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	args := []any{
		"kind", n.Kind.String(),
		"entity_id", n.EntityID,
		"title", n.Title,
		"urgent", n.Urgent,
	}
	if n.Urgent {
		s.logger.Warn(n.Message, args...)
	} else {
		s.logger.Info(n.Message, args...)
	}
	return nil
}
