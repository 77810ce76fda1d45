package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/taskwatch/internal/event"
	"github.com/Iron-Ham/taskwatch/internal/logging"
	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/notify"
	"github.com/Iron-Ham/taskwatch/internal/store"
)

// State is the monitor lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Monitor periodically scans tasks and meetings and delivers notifications.
type Monitor struct {
	tasks    store.TaskStore
	meetings store.MeetingStore
	sink     notify.Sink
	bus      *event.Bus
	logger   *logging.Logger
	now      func() time.Time

	settings atomic.Pointer[Settings]
	ticking  atomic.Bool

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	dedupMu          sync.Mutex
	notifiedTasks    map[int64]struct{}
	notifiedMeetings map[int64]struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithMeetingStore enables meeting reminders.
func WithMeetingStore(ms store.MeetingStore) Option {
	return func(m *Monitor) {
		m.meetings = ms
	}
}

// WithBus publishes notifications and tick summaries on bus.
func WithBus(bus *event.Bus) Option {
	return func(m *Monitor) {
		m.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithSettings sets the initial thresholds.
func WithSettings(s Settings) Option {
	return func(m *Monitor) {
		s = s.withDefaults()
		m.settings.Store(&s)
	}
}

// New creates an idle Monitor reading tasks from tasks and delivering to
// sink.
func New(tasks store.TaskStore, sink notify.Sink, opts ...Option) *Monitor {
	m := &Monitor{
		tasks:            tasks,
		sink:             sink,
		logger:           logging.NopLogger(),
		now:              time.Now,
		notifiedTasks:    make(map[int64]struct{}),
		notifiedMeetings: make(map[int64]struct{}),
	}
	d := DefaultSettings()
	m.settings.Store(&d)
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithComponent("monitor")
	return m
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Settings returns the thresholds in use.
func (m *Monitor) Settings() Settings {
	return *m.settings.Load()
}

// UpdateSettings replaces the thresholds. Ticks that start afterwards use
// the new values; the interval takes effect on the next Start.
func (m *Monitor) UpdateSettings(s Settings) {
	s = s.withDefaults()
	m.settings.Store(&s)
	m.logger.Info("settings updated",
		"interval", s.Interval.String(),
		"deadline_warning", s.DeadlineWarning.String(),
		"meeting_reminder", s.MeetingReminder.String(),
		"scan_window", s.ScanWindow.String())
}

// Start begins periodic ticks. It returns immediately; ticks stop when ctx
// is canceled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.state = StateRunning
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	interval := m.Settings().Interval
	m.logger.Info("monitor started", "interval", interval.String())
	if m.bus != nil {
		m.bus.Publish(event.NewMonitorStartedEvent(m.now(), interval))
	}

	go m.run(ctx, interval, done)
}

// Stop halts ticking and waits for the loop and any in-flight tick to
// finish. Stop on an idle monitor is a no-op. Stop after the start context
// was canceled still waits for the loop to wind down.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if done == nil {
		return
	}

	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		m.mu.Lock()
		m.state = StateStopped
		m.mu.Unlock()
		m.logger.Info("monitor stopped")
		if m.bus != nil {
			m.bus.Publish(event.NewMonitorStoppedEvent(m.now()))
		}
		close(done)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// select picks randomly when both are ready.
			if ctx.Err() != nil {
				return
			}
			// Overlap is rejected by the guard in Tick.
			wg.Go(func() { m.Tick(ctx) })
		}
	}
}

// Reset clears both dedup sets so every eligible task and meeting can
// notify once more. Safe to call from any goroutine.
func (m *Monitor) Reset() {
	m.dedupMu.Lock()
	defer m.dedupMu.Unlock()
	clear(m.notifiedTasks)
	clear(m.notifiedMeetings)
	m.logger.Info("notification history reset")
}

// markTask records id as notified and reports whether it was new.
func (m *Monitor) markTask(id int64) bool {
	m.dedupMu.Lock()
	defer m.dedupMu.Unlock()
	if _, ok := m.notifiedTasks[id]; ok {
		return false
	}
	m.notifiedTasks[id] = struct{}{}
	return true
}

// markMeeting records id as reminded and reports whether it was new.
func (m *Monitor) markMeeting(id int64) bool {
	m.dedupMu.Lock()
	defer m.dedupMu.Unlock()
	if _, ok := m.notifiedMeetings[id]; ok {
		return false
	}
	m.notifiedMeetings[id] = struct{}{}
	return true
}

func (m *Monitor) taskNotified(id int64) bool {
	m.dedupMu.Lock()
	defer m.dedupMu.Unlock()
	_, ok := m.notifiedTasks[id]
	return ok
}

func (m *Monitor) meetingNotified(id int64) bool {
	m.dedupMu.Lock()
	defer m.dedupMu.Unlock()
	_, ok := m.notifiedMeetings[id]
	return ok
}

// Report summarizes one tick.
type Report struct {
	TickID          string
	Skipped         bool
	TasksChecked    int
	MeetingsChecked int
	Notifications   []notify.Notification
	// DeliveryFailures counts notifications the sink rejected.
	DeliveryFailures int
	TaskErr          error
	MeetingErr       error
}

// Tick runs one scan. It returns a skipped Report when another tick is in
// flight, ctx is already done or the monitor has been stopped.
func (m *Monitor) Tick(ctx context.Context) Report {
	if ctx.Err() != nil || m.State() == StateStopped {
		return Report{Skipped: true}
	}
	if !m.ticking.CompareAndSwap(false, true) {
		m.logger.Debug("tick skipped, previous tick still running")
		if m.bus != nil {
			m.bus.Publish(event.NewTickSkippedEvent(m.now()))
		}
		return Report{Skipped: true}
	}
	defer m.ticking.Store(false)
	if ctx.Err() != nil {
		return Report{Skipped: true}
	}

	start := m.now()
	rep := Report{TickID: uuid.NewString()}
	logger := m.logger.WithTick(rep.TickID)
	s := m.Settings()

	m.taskPass(ctx, logger, s, start, &rep)
	m.meetingPass(ctx, logger, s, start, &rep)

	elapsed := m.now().Sub(start)
	logger.Debug("tick complete",
		"tasks", rep.TasksChecked,
		"meetings", rep.MeetingsChecked,
		"notifications", len(rep.Notifications),
		"delivery_failures", rep.DeliveryFailures,
		"duration_ms", elapsed.Milliseconds())

	if m.bus != nil {
		te := event.NewTickEvent(m.now(), rep.TickID)
		te.Duration = elapsed
		te.TasksChecked = rep.TasksChecked
		te.MeetingsChecked = rep.MeetingsChecked
		te.Notifications = len(rep.Notifications)
		te.DeliveryFailures = rep.DeliveryFailures
		te.TaskFetchFailed = rep.TaskErr != nil
		te.MeetingFetchFailed = rep.MeetingErr != nil
		m.bus.Publish(te)
	}
	return rep
}

func (m *Monitor) taskPass(ctx context.Context, logger *logging.Logger, s Settings, now time.Time, rep *Report) {
	from, to := now.Add(-s.ScanWindow), now.Add(s.ScanWindow)
	tasks, err := m.tasks.Tasks(ctx, store.TaskFilter{DueFrom: &from, DueTo: &to})
	if err != nil {
		rep.TaskErr = err
		logger.Warn("task fetch failed, skipping deadline pass", "error", err.Error())
		return
	}

	for _, t := range tasks {
		if t.Status == model.StatusCompleted || t.Due == nil {
			continue
		}
		if t.Due.Before(from) || t.Due.After(to) {
			continue
		}
		rep.TasksChecked++
		if m.taskNotified(t.ID) {
			continue
		}

		remaining := t.Due.Sub(now)
		var n notify.Notification
		switch {
		case remaining > 0 && remaining <= s.DeadlineWarning:
			n = notify.Notification{
				Kind:     notify.KindApproaching,
				EntityID: t.ID,
				Title:    "Deadline approaching",
				Message:  fmt.Sprintf("Task %q is due in %s", t.Title, humanDuration(remaining)),
				Urgent:   t.Priority.IsUrgent(),
				At:       now,
			}
		case remaining < 0:
			n = notify.Notification{
				Kind:     notify.KindOverdue,
				EntityID: t.ID,
				Title:    "Task overdue",
				Message:  fmt.Sprintf("Task %q is overdue by %s", t.Title, humanDuration(-remaining)),
				Urgent:   true,
				At:       now,
			}
		default:
			continue
		}

		if !m.markTask(t.ID) {
			continue
		}
		m.deliver(ctx, logger, n, rep)
	}
}

func (m *Monitor) meetingPass(ctx context.Context, logger *logging.Logger, s Settings, now time.Time, rep *Report) {
	if m.meetings == nil {
		return
	}
	meetings, err := m.meetings.Meetings(ctx, store.MeetingFilter{From: now, To: now.Add(s.MeetingReminder)})
	if err != nil {
		rep.MeetingErr = err
		logger.Warn("meeting fetch failed, skipping reminder pass", "error", err.Error())
		return
	}

	for _, mt := range meetings {
		rep.MeetingsChecked++
		if mt.ReminderSent || !mt.Start.After(now) || m.meetingNotified(mt.ID) {
			continue
		}
		until := mt.Start.Sub(now)
		if until > s.MeetingReminder {
			continue
		}
		if !m.markMeeting(mt.ID) {
			continue
		}
		m.deliver(ctx, logger, notify.Notification{
			Kind:     notify.KindMeeting,
			EntityID: mt.ID,
			Title:    "Meeting reminder",
			Message:  fmt.Sprintf("Meeting %q starts in %s", mt.Title, humanDuration(until)),
			At:       now,
		}, rep)
	}
}

// deliver hands n to the sink. Failures are logged and counted only.
func (m *Monitor) deliver(ctx context.Context, logger *logging.Logger, n notify.Notification, rep *Report) {
	rep.Notifications = append(rep.Notifications, n)

	delivered := true
	if err := m.sink.Deliver(ctx, n); err != nil {
		delivered = false
		rep.DeliveryFailures++
		logger.Warn("notification delivery failed",
			"kind", n.Kind.String(),
			"entity_id", n.EntityID,
			"error", err.Error())
	}

	if m.bus != nil {
		m.bus.Publish(event.NewNotificationEvent(eventType(n.Kind), n.At, n.EntityID, n.Title, n.Message, n.Urgent, delivered))
	}
}

func eventType(k notify.Kind) string {
	switch k {
	case notify.KindApproaching:
		return event.TypeApproaching
	case notify.KindOverdue:
		return event.TypeOverdue
	default:
		return event.TypeMeeting
	}
}

// humanDuration renders d as "1h30m", "45m" or "under a minute".
func humanDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "under a minute"
	}
	h := int(d / time.Hour)
	mins := int((d % time.Hour) / time.Minute)
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dm", h, mins)
	}
}
