package event

import (
	"time"

	"github.com/Iron-Ham/taskwatch/internal/model"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeApproaching = "notification.approaching"
	TypeOverdue     = "notification.overdue"
	TypeMeeting     = "notification.meeting"

	TypeMonitorStarted = "monitor.started"
	TypeMonitorStopped = "monitor.stopped"
	TypeTick           = "monitor.tick"
	TypeTickSkipped    = "monitor.tick_skipped"

	TypeAnomalyDetected = "anomaly.detected"

	TypeRecommendation = "recommendation.completed"
	TypeTaskAssigned   = "task.assigned"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent stamped at at.
func newBaseEvent(eventType string, at time.Time) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: at,
	}
}

// -----------------------------------------------------------------------------
// Notification Events
// -----------------------------------------------------------------------------

// NotificationEvent mirrors a notification emitted by the deadline monitor.
// EntityID is a task id for approaching and overdue notifications and a
// meeting id for meeting reminders.
type NotificationEvent struct {
	baseEvent
	EntityID  int64
	Title     string
	Message   string
	Urgent    bool
	Delivered bool // false when the sink returned an error
}

// NewNotificationEvent creates a NotificationEvent of the given type.
func NewNotificationEvent(eventType string, at time.Time, entityID int64, title, message string, urgent, delivered bool) NotificationEvent {
	return NotificationEvent{
		baseEvent: newBaseEvent(eventType, at),
		EntityID:  entityID,
		Title:     title,
		Message:   message,
		Urgent:    urgent,
		Delivered: delivered,
	}
}

// Kind returns the notification kind without the category prefix.
func (e NotificationEvent) Kind() string {
	switch e.eventType {
	case TypeApproaching:
		return "approaching"
	case TypeOverdue:
		return "overdue"
	case TypeMeeting:
		return "meeting"
	default:
		return e.eventType
	}
}

// -----------------------------------------------------------------------------
// Monitor Events
// -----------------------------------------------------------------------------

// MonitorStateEvent is emitted when the monitor starts or stops.
type MonitorStateEvent struct {
	baseEvent
	Interval time.Duration
}

// NewMonitorStartedEvent creates a monitor.started event.
func NewMonitorStartedEvent(at time.Time, interval time.Duration) MonitorStateEvent {
	return MonitorStateEvent{baseEvent: newBaseEvent(TypeMonitorStarted, at), Interval: interval}
}

// NewMonitorStoppedEvent creates a monitor.stopped event.
func NewMonitorStoppedEvent(at time.Time) MonitorStateEvent {
	return MonitorStateEvent{baseEvent: newBaseEvent(TypeMonitorStopped, at)}
}

// TickEvent summarizes one completed monitor tick.
type TickEvent struct {
	baseEvent
	TickID             string
	Duration           time.Duration
	TasksChecked       int
	MeetingsChecked    int
	Notifications      int
	DeliveryFailures   int
	TaskFetchFailed    bool
	MeetingFetchFailed bool
}

// NewTickEvent creates a monitor.tick event. Counters are filled in by the
// caller.
func NewTickEvent(at time.Time, tickID string) TickEvent {
	return TickEvent{baseEvent: newBaseEvent(TypeTick, at), TickID: tickID}
}

// TickSkippedEvent is emitted when a tick is suppressed because another
// tick is still running.
type TickSkippedEvent struct {
	baseEvent
}

// NewTickSkippedEvent creates a monitor.tick_skipped event.
func NewTickSkippedEvent(at time.Time) TickSkippedEvent {
	return TickSkippedEvent{baseEvent: newBaseEvent(TypeTickSkipped, at)}
}

// -----------------------------------------------------------------------------
// Analysis Events
// -----------------------------------------------------------------------------

// AnomalyDetectedEvent carries one anomaly found by a scan.
type AnomalyDetectedEvent struct {
	baseEvent
	Anomaly model.Anomaly
}

// NewAnomalyDetectedEvent creates an anomaly.detected event.
func NewAnomalyDetectedEvent(a model.Anomaly) AnomalyDetectedEvent {
	return AnomalyDetectedEvent{baseEvent: newBaseEvent(TypeAnomalyDetected, a.DetectedAt), Anomaly: a}
}

// RecommendationEvent is emitted after a recommendation is produced.
type RecommendationEvent struct {
	baseEvent
	TaskID     int64
	EmployeeID int64
	Score      float64
	Candidates int
	Duration   time.Duration
	// Fallback is true when the rationale was generated locally because the
	// completion backend was disabled or failed.
	Fallback bool
}

// NewRecommendationEvent creates a recommendation.completed event.
func NewRecommendationEvent(at time.Time, rec model.Recommendation, candidates int, d time.Duration, fallback bool) RecommendationEvent {
	return RecommendationEvent{
		baseEvent:  newBaseEvent(TypeRecommendation, at),
		TaskID:     rec.TaskID,
		EmployeeID: rec.Employee.ID,
		Score:      rec.Score,
		Candidates: candidates,
		Duration:   d,
		Fallback:   fallback,
	}
}

// TaskAssignedEvent is emitted when a task's assignee is written.
type TaskAssignedEvent struct {
	baseEvent
	TaskID     int64
	EmployeeID int64
}

// NewTaskAssignedEvent creates a task.assigned event.
func NewTaskAssignedEvent(at time.Time, taskID, employeeID int64) TaskAssignedEvent {
	return TaskAssignedEvent{
		baseEvent:  newBaseEvent(TypeTaskAssigned, at),
		TaskID:     taskID,
		EmployeeID: employeeID,
	}
}
