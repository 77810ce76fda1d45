package recommend

import (
	"cmp"
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/taskwatch/internal/completion"
	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/event"
	"github.com/Iron-Ham/taskwatch/internal/logging"
	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/scoring"
	"github.com/Iron-Ham/taskwatch/internal/store"
)

// maxAlternatives is the number of candidates kept in a recommendation.
const maxAlternatives = 3

// Default completion policy.
const (
	DefaultTimeout        = 120 * time.Second
	DefaultMaxRetries     = 2
	DefaultInitialBackoff = 500 * time.Millisecond
)

// Service produces recommendations and writes assignments.
type Service struct {
	client    completion.Client
	tasks     store.TaskStore
	employees store.EmployeeStore
	bus       *event.Bus
	logger    *logging.Logger
	now       func() time.Time

	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCompletion sets the completion client. A nil client disables
// generated rationales.
func WithCompletion(c completion.Client) Option {
	return func(s *Service) {
		s.client = c
	}
}

// WithStores sets the stores used by RecommendForTask and Assign.
func WithStores(tasks store.TaskStore, employees store.EmployeeStore) Option {
	return func(s *Service) {
		s.tasks = tasks
		s.employees = employees
	}
}

// WithBus sets the event bus recommendation and assignment events are
// published on.
func WithBus(bus *event.Bus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds the whole rationale call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetry sets the retry count and the first backoff delay. The delay
// doubles after each attempt.
func WithRetry(maxRetries int, initialBackoff time.Duration) Option {
	return func(s *Service) {
		s.maxRetries = max(0, maxRetries)
		s.initialBackoff = max(0, initialBackoff)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{
		logger:         logging.NopLogger(),
		now:            time.Now,
		timeout:        DefaultTimeout,
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("recommend")
	return s
}

// Rank scores every employee for task and returns them best first. Equal
// scores keep their input order.
func Rank(task model.Task, employees []model.Employee, allTasks []model.Task) []model.Candidate {
	ranked := make([]model.Candidate, 0, len(employees))
	for _, e := range employees {
		ranked = append(ranked, model.Candidate{
			Employee: e,
			Score:    scoring.Score(e, task, allTasks),
		})
	}
	slices.SortStableFunc(ranked, func(a, b model.Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Recommend picks the best employee for task. The rationale comes from the
// completion client when one is configured and answers in time; otherwise a
// generated sentence is used. Completion failures never change the ranking
// and are not returned.
func (s *Service) Recommend(ctx context.Context, task *model.Task, employees []model.Employee, allTasks []model.Task) (*model.Recommendation, error) {
	if task == nil {
		return nil, errors.NewValidationError("task is required").WithField("task")
	}
	if len(employees) == 0 {
		return nil, errors.ErrNoCandidates
	}

	start := s.now()
	ranked := Rank(*task, employees, allTasks)
	best := ranked[0]

	rec := &model.Recommendation{
		TaskID:       task.ID,
		Employee:     best.Employee,
		Score:        best.Score,
		Alternatives: topN(ranked, maxAlternatives),
	}

	fallback := false
	rationale, err := s.rationale(ctx, buildPrompt(*task, ranked, allTasks))
	if err != nil || rationale == "" {
		fallback = true
		rationale = fallbackRationale(best, len(ranked))
		if err != nil {
			s.logger.Warn("completion failed, using fallback rationale",
				"task_id", task.ID,
				"error", err.Error(),
				"retryable", errors.IsRetryable(err))
		}
	}
	rec.Rationale = rationale

	elapsed := s.now().Sub(start)
	s.logger.Info("recommendation produced",
		"task_id", task.ID,
		"employee_id", best.Employee.ID,
		"score", best.Score,
		"candidates", len(ranked),
		"fallback", fallback,
		"duration_ms", elapsed.Milliseconds())

	if s.bus != nil {
		s.bus.Publish(event.NewRecommendationEvent(s.now(), *rec, len(ranked), elapsed, fallback))
	}
	return rec, nil
}

// rationale asks the completion client for an explanation. It returns an
// empty string and no error when no client is configured.
func (s *Service) rationale(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	backoff := s.initialBackoff
	for attempt := 0; ; attempt++ {
		text, err := s.client.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", errors.NewTimeoutError("completion", s.timeout).WithCause(err)
			}
			return "", errors.Join(errors.ErrCanceled, err)
		}
		if !errors.IsRetryable(err) || attempt >= s.maxRetries {
			return "", err
		}

		s.logger.Debug("retrying completion",
			"attempt", attempt+1,
			"backoff_ms", backoff.Milliseconds(),
			"error", err.Error())

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", errors.NewTimeoutError("completion", s.timeout).WithCause(err)
			}
			return "", errors.Join(errors.ErrCanceled, err)
		case <-timer.C:
		}
		backoff *= 2
	}
}

// RecommendForTask loads the current tasks and employees and recommends an
// employee for the task with the given id.
func (s *Service) RecommendForTask(ctx context.Context, taskID int64) (*model.Recommendation, error) {
	task, employees, tasks, err := s.snapshot(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.Recommend(ctx, &task, employees, tasks)
}

// Explain returns the score breakdown of every employee for the task with
// the given id, best first.
func (s *Service) Explain(ctx context.Context, taskID int64) ([]Explanation, error) {
	task, employees, tasks, err := s.snapshot(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ranked := Rank(task, employees, tasks)
	out := make([]Explanation, len(ranked))
	for i, c := range ranked {
		out[i] = Explanation{
			Candidate: c,
			Breakdown: scoring.Compute(c.Employee, task, tasks),
		}
	}
	return out, nil
}

// Explanation pairs a ranked candidate with its score components.
type Explanation struct {
	model.Candidate
	Breakdown scoring.Breakdown
}

func (s *Service) snapshot(ctx context.Context, taskID int64) (model.Task, []model.Employee, []model.Task, error) {
	if s.tasks == nil || s.employees == nil {
		return model.Task{}, nil, nil, errors.Wrap(errors.ErrStoreUnavailable, "recommend: stores not configured")
	}

	var (
		tasks     []model.Task
		employees []model.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.Tasks(gctx, store.TaskFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.employees.Employees(gctx, store.EmployeeFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Task{}, nil, nil, errors.Wrap(err, "load snapshot")
	}

	i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == taskID })
	if i < 0 {
		return model.Task{}, nil, nil, errors.NewNotFoundError("task", taskID)
	}
	return tasks[i], employees, tasks, nil
}

// Assign makes employeeID the assignee of taskID.
func (s *Service) Assign(ctx context.Context, taskID, employeeID int64) (model.Task, error) {
	if s.tasks == nil || s.employees == nil {
		return model.Task{}, errors.Wrap(errors.ErrStoreUnavailable, "assign: stores not configured")
	}

	if _, err := s.employees.Employee(ctx, employeeID); err != nil {
		return model.Task{}, err
	}

	tasks, err := s.tasks.Tasks(ctx, store.TaskFilter{})
	if err != nil {
		return model.Task{}, errors.Wrap(err, "load tasks")
	}
	i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == taskID })
	if i < 0 {
		return model.Task{}, errors.NewNotFoundError("task", taskID)
	}

	task := tasks[i]
	task.Assign(&employeeID)
	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		return model.Task{}, err
	}

	s.logger.Info("task assigned", "task_id", taskID, "employee_id", employeeID)
	if s.bus != nil {
		s.bus.Publish(event.NewTaskAssignedEvent(s.now(), taskID, employeeID))
	}
	return task, nil
}

func topN(ranked []model.Candidate, n int) []model.Candidate {
	return slices.Clone(ranked[:min(n, len(ranked))])
}
