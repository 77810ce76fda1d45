package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/event"
	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/notify"
	"github.com/Iron-Ham/taskwatch/internal/store"
	"github.com/Iron-Ham/taskwatch/internal/testutil"
)

var base = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type taskSource struct {
	mu    sync.Mutex
	tasks []model.Task
	err   error
	// gate, when set, blocks Tasks until it is closed.
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
	// late counts fetches made with an already canceled context.
	late atomic.Int32
}

func (s *taskSource) Tasks(ctx context.Context, f store.TaskFilter) ([]model.Task, error) {
	s.calls.Add(1)
	if ctx.Err() != nil {
		s.late.Add(1)
	}
	if s.gate != nil {
		if s.entered != nil {
			s.entered <- struct{}{}
		}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Task
	for _, t := range s.tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *taskSource) CreateTask(_ context.Context, t model.Task) (model.Task, error) {
	return t, nil
}

func (s *taskSource) UpdateTask(context.Context, model.Task) error { return nil }

type meetingSource struct {
	meetings []model.Meeting
	err      error
}

func (s *meetingSource) Meetings(_ context.Context, f store.MeetingFilter) ([]model.Meeting, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Meeting
	for _, m := range s.meetings {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
	err error
}

func (r *recorder) Deliver(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recorder) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.got...)
}

func due(d time.Duration) *time.Time {
	return testutil.TimeAt(base, d)
}

func newTestMonitor(ts store.TaskStore, sink notify.Sink, opts ...Option) (*Monitor, *testutil.Clock) {
	clock := testutil.NewClock(base)
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(ts, sink, opts...), clock
}

func TestTick_ApproachingAndOverdue(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Soon", Status: model.StatusPending, Priority: model.PriorityNormal, Due: due(90 * time.Minute)},
		{ID: 2, Title: "Hot", Status: model.StatusInProgress, Priority: model.PriorityCritical, Due: due(30 * time.Minute)},
		{ID: 3, Title: "Late", Status: model.StatusPending, Priority: model.PriorityLow, Due: due(-2 * time.Hour)},
		{ID: 4, Title: "Later", Status: model.StatusPending, Due: due(5 * time.Hour)},
		{ID: 5, Title: "Done", Status: model.StatusCompleted, Due: due(-time.Hour)},
		{ID: 6, Title: "Ancient", Status: model.StatusPending, Due: due(-48 * time.Hour)},
		{ID: 7, Title: "Undated", Status: model.StatusPending},
		{ID: 8, Title: "Now", Status: model.StatusPending, Due: due(0)},
	}}
	rec := &recorder{}
	m, _ := newTestMonitor(ts, rec)

	rep := m.Tick(context.Background())
	require.False(t, rep.Skipped)
	require.NoError(t, rep.TaskErr)
	assert.NotEmpty(t, rep.TickID)

	got := rec.all()
	require.Len(t, got, 3)

	assert.Equal(t, notify.KindApproaching, got[0].Kind)
	assert.Equal(t, int64(1), got[0].EntityID)
	assert.False(t, got[0].Urgent)
	assert.Equal(t, `Task "Soon" is due in 1h30m`, got[0].Message)

	assert.Equal(t, notify.KindApproaching, got[1].Kind)
	assert.True(t, got[1].Urgent, "critical priority is urgent")

	assert.Equal(t, notify.KindOverdue, got[2].Kind)
	assert.Equal(t, int64(3), got[2].EntityID)
	assert.True(t, got[2].Urgent)
	assert.Equal(t, `Task "Late" is overdue by 2h`, got[2].Message)
}

func TestTick_DedupAndReset(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Soon", Status: model.StatusPending, Due: due(time.Hour)},
		{ID: 2, Title: "Late", Status: model.StatusPending, Due: due(-time.Hour)},
	}}
	rec := &recorder{}
	m, _ := newTestMonitor(ts, rec)

	for range 5 {
		m.Tick(context.Background())
	}
	assert.Len(t, rec.all(), 2)

	m.Reset()
	m.Tick(context.Background())
	m.Tick(context.Background())
	assert.Len(t, rec.all(), 4, "reset allows exactly one more notification per task")
}

func TestTick_ApproachingNeverBecomesOverdue(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Soon", Status: model.StatusPending, Due: due(time.Hour)},
	}}
	rec := &recorder{}
	m, clock := newTestMonitor(ts, rec)

	m.Tick(context.Background())
	clock.Advance(3 * time.Hour)
	m.Tick(context.Background())

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, notify.KindApproaching, got[0].Kind)
}

func TestTick_TaskFetchFailure(t *testing.T) {
	ts := &taskSource{
		tasks: []model.Task{{ID: 1, Title: "Late", Status: model.StatusPending, Due: due(-time.Hour)}},
		err:   errors.NewStoreError("list tasks", errors.New("offline")),
	}
	ms := &meetingSource{meetings: []model.Meeting{{ID: 9, Title: "Standup", Start: base.Add(10 * time.Minute)}}}
	rec := &recorder{}
	m, _ := newTestMonitor(ts, rec, WithMeetingStore(ms))

	rep := m.Tick(context.Background())
	assert.ErrorIs(t, rep.TaskErr, errors.ErrStoreUnavailable)
	require.Len(t, rec.all(), 1, "meeting pass still runs")
	assert.Equal(t, notify.KindMeeting, rec.all()[0].Kind)

	// The failed pass did not mark anything.
	ts.mu.Lock()
	ts.err = nil
	ts.mu.Unlock()
	m.Tick(context.Background())
	got := rec.all()
	require.Len(t, got, 2)
	assert.Equal(t, notify.KindOverdue, got[1].Kind)
}

func TestTick_MeetingReminders(t *testing.T) {
	ms := &meetingSource{meetings: []model.Meeting{
		{ID: 1, Title: "Standup", Start: base.Add(10 * time.Minute)},
		{ID: 2, Title: "Retro", Start: base.Add(time.Hour)},
		{ID: 3, Title: "Past", Start: base.Add(-5 * time.Minute)},
		{ID: 4, Title: "Edge", Start: base.Add(15 * time.Minute)},
	}}
	rec := &recorder{}
	m, clock := newTestMonitor(&taskSource{}, rec, WithMeetingStore(ms))

	m.Tick(context.Background())
	got := rec.all()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].EntityID)
	assert.False(t, got[0].Urgent)
	assert.Equal(t, `Meeting "Standup" starts in 10m`, got[0].Message)
	assert.Equal(t, int64(4), got[1].EntityID)

	clock.Advance(50 * time.Minute)
	m.Tick(context.Background())
	got = rec.all()
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[2].EntityID)
}

func TestTick_MeetingAlreadyReminded(t *testing.T) {
	ms := &meetingSource{meetings: []model.Meeting{
		{ID: 1, Title: "Standup", Start: base.Add(5 * time.Minute), ReminderSent: true},
		{ID: 2, Title: "Sync", Start: base.Add(5 * time.Minute)},
	}}
	rec := &recorder{}
	m, _ := newTestMonitor(&taskSource{}, rec, WithMeetingStore(ms))

	rep := m.Tick(context.Background())
	assert.Equal(t, 2, rep.MeetingsChecked)
	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].EntityID)
}

func TestTick_MeetingFetchFailure(t *testing.T) {
	ms := &meetingSource{err: errors.New("calendar down")}
	m, _ := newTestMonitor(&taskSource{}, &recorder{}, WithMeetingStore(ms))

	rep := m.Tick(context.Background())
	assert.Error(t, rep.MeetingErr)
	assert.NoError(t, rep.TaskErr)
}

func TestTick_SinkFailureStillMarks(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Late", Status: model.StatusPending, Due: due(-time.Hour)},
	}}
	rec := &recorder{err: errors.ErrDeliveryFailed}
	bus := event.NewBus(nil)
	var delivered []bool
	bus.Subscribe(event.TypeOverdue, func(e event.Event) {
		delivered = append(delivered, e.(event.NotificationEvent).Delivered)
	})
	m, _ := newTestMonitor(ts, rec, WithBus(bus))

	rep := m.Tick(context.Background())
	assert.Equal(t, 1, rep.DeliveryFailures)
	m.Tick(context.Background())

	assert.Len(t, rec.all(), 1)
	assert.Equal(t, []bool{false}, delivered)
}

func TestTick_SingleFlight(t *testing.T) {
	ts := &taskSource{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	bus := event.NewBus(nil)
	var skipped atomic.Int32
	bus.Subscribe(event.TypeTickSkipped, func(event.Event) { skipped.Add(1) })
	m, _ := newTestMonitor(ts, &recorder{}, WithBus(bus))

	first := make(chan Report)
	go func() { first <- m.Tick(context.Background()) }()
	<-ts.entered

	rep := m.Tick(context.Background())
	assert.True(t, rep.Skipped)
	assert.Equal(t, int32(1), skipped.Load())

	close(ts.gate)
	assert.False(t, (<-first).Skipped)
	assert.Equal(t, int32(1), ts.calls.Load())
}

func TestTick_PublishesSummary(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Late", Status: model.StatusPending, Due: due(-time.Hour)},
		{ID: 2, Title: "Later", Status: model.StatusPending, Due: due(10 * time.Hour)},
	}}
	bus := event.NewBus(nil)
	var ticks []event.TickEvent
	bus.Subscribe(event.TypeTick, func(e event.Event) { ticks = append(ticks, e.(event.TickEvent)) })
	m, _ := newTestMonitor(ts, &recorder{}, WithBus(bus))

	rep := m.Tick(context.Background())
	require.Len(t, ticks, 1)
	assert.Equal(t, rep.TickID, ticks[0].TickID)
	assert.Equal(t, 2, ticks[0].TasksChecked)
	assert.Equal(t, 1, ticks[0].Notifications)
	assert.False(t, ticks[0].TaskFetchFailed)
}

func TestUpdateSettings(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Soon", Status: model.StatusPending, Due: due(3 * time.Hour)},
	}}
	rec := &recorder{}
	m, _ := newTestMonitor(ts, rec)

	m.Tick(context.Background())
	assert.Empty(t, rec.all())

	m.UpdateSettings(Settings{DeadlineWarning: 4 * time.Hour})
	assert.Equal(t, DefaultSettings().Interval, m.Settings().Interval)

	m.Tick(context.Background())
	assert.Len(t, rec.all(), 1)
}

func TestLifecycle(t *testing.T) {
	ts := &taskSource{}
	bus := event.NewBus(nil)
	var started, stopped atomic.Int32
	bus.Subscribe(event.TypeMonitorStarted, func(event.Event) { started.Add(1) })
	bus.Subscribe(event.TypeMonitorStopped, func(event.Event) { stopped.Add(1) })

	m := New(ts, &recorder{}, WithBus(bus), WithSettings(Settings{Interval: 5 * time.Millisecond}))
	assert.Equal(t, StateIdle, m.State())

	m.Stop()
	assert.Equal(t, StateIdle, m.State(), "stop while idle is a no-op")

	m.Start(context.Background())
	m.Start(context.Background())
	assert.Equal(t, StateRunning, m.State())
	assert.Equal(t, int32(1), started.Load())

	require.Eventually(t, func() bool { return ts.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.Equal(t, StateStopped, m.State())
	assert.Equal(t, int32(1), stopped.Load())

	calls := ts.calls.Load()
	m.Start(context.Background())
	assert.Equal(t, StateStopped, m.State(), "start after stop is a no-op")
	assert.True(t, m.Tick(context.Background()).Skipped)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, ts.calls.Load())
}

func TestLifecycle_ContextCancel(t *testing.T) {
	bus := event.NewBus(nil)
	var stopped atomic.Int32
	bus.Subscribe(event.TypeMonitorStopped, func(event.Event) { stopped.Add(1) })
	m := New(&taskSource{}, &recorder{}, WithBus(bus), WithSettings(Settings{Interval: time.Hour}))
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()

	require.Eventually(t, func() bool { return m.State() == StateStopped }, time.Second, time.Millisecond)
	m.Stop()
	assert.Equal(t, int32(1), stopped.Load(), "Stop returns only after the loop has finished")
}

func TestLifecycle_StopAfterCancelWaitsForLoop(t *testing.T) {
	bus := event.NewBus(nil)
	var stopped atomic.Int32
	bus.Subscribe(event.TypeMonitorStopped, func(event.Event) { stopped.Add(1) })
	m := New(&taskSource{}, &recorder{}, WithBus(bus), WithSettings(Settings{Interval: time.Hour}))
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	cancel()
	m.Stop()
	assert.Equal(t, StateStopped, m.State())
	assert.Equal(t, int32(1), stopped.Load())
	m.Stop()
	assert.Equal(t, int32(1), stopped.Load())
}

func TestTick_CanceledContextSkipsFetch(t *testing.T) {
	ts := &taskSource{tasks: []model.Task{
		{ID: 1, Title: "Late", Status: model.StatusPending, Due: due(-time.Hour)},
	}}
	rec := &recorder{}
	m, _ := newTestMonitor(ts, rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := m.Tick(ctx)
	assert.True(t, rep.Skipped)
	assert.Equal(t, int32(0), ts.calls.Load())
	assert.Empty(t, rec.all())
}

func TestLifecycle_NoTicksStartAfterStop(t *testing.T) {
	ts := &taskSource{}
	const cycles = 50
	for range cycles {
		m := New(ts, &recorder{}, WithSettings(Settings{Interval: time.Microsecond}))
		m.Start(context.Background())
		time.Sleep(200 * time.Microsecond)
		m.Stop()
	}

	// Only a tick already past its cancellation check when Stop ran may
	// fetch late, and single-flight allows one such tick per monitor.
	assert.LessOrEqual(t, ts.late.Load(), int32(cycles))

	calls := ts.calls.Load()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, calls, ts.calls.Load())
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{20 * time.Second, "under a minute"},
		{45 * time.Minute, "45m"},
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "1h30m"},
		{89*time.Minute + 40*time.Second, "1h30m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanDuration(tt.in), tt.in.String())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
