package anomaly

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/event"
	"github.com/Iron-Ham/taskwatch/internal/logging"
	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/store"
)

// Thresholds controls anomaly classification.
type Thresholds struct {
	// OverdueDays is how far past due, in days, a task must be to be flagged.
	OverdueDays float64
	// CriticalOverdueDays escalates an overdue task to critical severity.
	CriticalOverdueDays float64
	// WorkloadRatio is the fraction of max workload above which an employee
	// may be overloaded.
	WorkloadRatio float64
	// PendingTaskLimit is the pending task count an employee must exceed.
	PendingTaskLimit int
}

// DefaultThresholds returns the standard classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OverdueDays:         3,
		CriticalOverdueDays: 7,
		WorkloadRatio:       0.8,
		PendingTaskLimit:    5,
	}
}

const day = 24 * time.Hour

// Detect returns the anomalies in tasks and employees as of now. Task
// anomalies come first in input order, followed by employee anomalies in
// input order.
func Detect(tasks []model.Task, employees []model.Employee, now time.Time, th Thresholds) []model.Anomaly {
	var out []model.Anomaly

	for _, t := range tasks {
		if t.Status == model.StatusCompleted || t.Due == nil {
			continue
		}
		overdue := float64(now.Sub(*t.Due)) / float64(day)
		if overdue <= th.OverdueDays {
			continue
		}
		severity := model.SeverityHigh
		if overdue > th.CriticalOverdueDays {
			severity = model.SeverityCritical
		}
		a := model.Anomaly{
			TaskID:     ptr(t.ID),
			Type:       model.AnomalyOverdue,
			Severity:   severity,
			Message:    fmt.Sprintf("Task %q is %d days overdue", t.Title, int(math.Round(overdue))),
			DetectedAt: now,
		}
		if t.AssigneeID != nil {
			a.EmployeeID = ptr(*t.AssigneeID)
		}
		out = append(out, a)
	}

	for _, e := range employees {
		pending := 0
		for _, t := range tasks {
			if t.IsAssignedTo(e.ID) && t.Status == model.StatusPending {
				pending++
			}
		}
		if pending <= th.PendingTaskLimit || e.CurrentWorkload <= th.WorkloadRatio*e.MaxWorkload {
			continue
		}
		out = append(out, model.Anomaly{
			EmployeeID: ptr(e.ID),
			Type:       model.AnomalyWorkloadOverload,
			Severity:   model.SeverityMedium,
			Message: fmt.Sprintf("%s has %d pending tasks at %.0f%% workload",
				e.DisplayName(), pending, e.WorkloadPercentage()),
			DetectedAt: now,
		})
	}

	return out
}

// Detector runs Detect over a store snapshot.
type Detector struct {
	tasks      store.TaskStore
	employees  store.EmployeeStore
	thresholds Thresholds
	bus        *event.Bus
	logger     *logging.Logger
	now        func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithThresholds overrides the default thresholds.
func WithThresholds(th Thresholds) Option {
	return func(d *Detector) {
		d.thresholds = th
	}
}

// WithBus publishes each detected anomaly on bus.
func WithBus(bus *event.Bus) Option {
	return func(d *Detector) {
		d.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// NewDetector creates a Detector reading from the given stores.
func NewDetector(tasks store.TaskStore, employees store.EmployeeStore, opts ...Option) *Detector {
	d := &Detector{
		tasks:      tasks,
		employees:  employees,
		thresholds: DefaultThresholds(),
		logger:     logging.NopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("anomaly")
	return d
}

// Thresholds returns the thresholds in use.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Scan loads tasks and employees concurrently and returns the anomalies
// found at the current time.
func (d *Detector) Scan(ctx context.Context) ([]model.Anomaly, error) {
	var (
		tasks     []model.Task
		employees []model.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = d.tasks.Tasks(gctx, store.TaskFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = d.employees.Employees(gctx, store.EmployeeFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		d.logger.Error("anomaly scan failed", "error", err.Error())
		return nil, errors.Wrap(err, "anomaly scan")
	}

	found := Detect(tasks, employees, d.now(), d.thresholds)
	d.logger.Info("anomaly scan complete",
		"tasks", len(tasks),
		"employees", len(employees),
		"anomalies", len(found))

	if d.bus != nil {
		for _, a := range found {
			d.bus.Publish(event.NewAnomalyDetectedEvent(a))
		}
	}
	return found, nil
}

func ptr[T any](v T) *T { return &v }
