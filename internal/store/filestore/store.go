package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/store"
)

// Store implements store.TaskStore, store.EmployeeStore and
// store.MeetingStore over a dataset file. It is safe for concurrent use.
type Store struct {
	path  string
	codec codec

	mu      sync.RWMutex
	data    Dataset
	modTime time.Time
	size    int64
}

var (
	_ store.TaskStore     = (*Store)(nil)
	_ store.EmployeeStore = (*Store)(nil)
	_ store.MeetingStore  = (*Store)(nil)
)

// Open loads the dataset at path. A missing file is treated as an empty
// dataset and is created on the first write.
func Open(path string) (*Store, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, errors.NewStoreError("open dataset", err).WithRetryable(false)
	}
	s := &Store{path: path, codec: c}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the dataset file path.
func (s *Store) Path() string {
	return s.path
}

// Tasks returns the tasks matching filter in dataset order.
func (s *Store) Tasks(ctx context.Context, filter store.TaskFilter) ([]model.Task, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Task
	for _, t := range s.data.Tasks {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTask appends task with the next free id and persists the dataset.
func (s *Store) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if task.Priority == "" {
		task.Priority = model.PriorityNormal
	}
	if !task.Status.Valid() || !task.Priority.Valid() {
		return model.Task{}, errors.NewValidationError("task status or priority is not recognized").
			WithField("task").WithValue(task.Title)
	}

	var created model.Task
	err := s.mutate(ctx, func(ds *Dataset) error {
		var next int64 = 1
		for _, t := range ds.Tasks {
			if t.ID >= next {
				next = t.ID + 1
			}
		}
		task.ID = next
		ds.Tasks = append(ds.Tasks, task)
		created = task
		return nil
	})
	return created, err
}

// UpdateTask replaces the task with the same id and persists the dataset.
func (s *Store) UpdateTask(ctx context.Context, task model.Task) error {
	return s.mutate(ctx, func(ds *Dataset) error {
		for i := range ds.Tasks {
			if ds.Tasks[i].ID == task.ID {
				ds.Tasks[i] = task
				return nil
			}
		}
		return errors.NewNotFoundError("task", task.ID)
	})
}

// Employees returns the employees matching filter in dataset order.
func (s *Store) Employees(ctx context.Context, filter store.EmployeeFilter) ([]model.Employee, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Employee
	for _, e := range s.data.Employees {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Employee returns the employee with the given id.
func (s *Store) Employee(ctx context.Context, id int64) (model.Employee, error) {
	if err := s.load(ctx); err != nil {
		return model.Employee{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.data.Employees {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Employee{}, errors.NewNotFoundError("employee", id)
}

// Meetings returns the meetings matching filter in dataset order.
func (s *Store) Meetings(ctx context.Context, filter store.MeetingFilter) ([]model.Meeting, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Meeting
	for _, m := range s.data.Meetings {
		if filter.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// load honors ctx and reloads the dataset if the file changed on disk.
func (s *Store) load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStoreError("load dataset", err)
	}
	return s.refresh()
}

func (s *Store) refresh() error {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewStoreError("stat dataset", err)
	}

	s.mu.RLock()
	fresh := info.ModTime().Equal(s.modTime) && info.Size() == s.size
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	ds, err := s.read()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = ds
	s.modTime = info.ModTime()
	s.size = info.Size()
	s.mu.Unlock()
	return nil
}

func (s *Store) read() (Dataset, error) {
	var ds Dataset
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return ds, nil
	}
	if err != nil {
		return ds, errors.NewStoreError("read dataset", err)
	}
	if err := s.codec.decode(data, &ds); err != nil {
		return ds, errors.NewStoreError("decode dataset", err).WithRetryable(false)
	}
	return ds, nil
}

// mutate applies fn to the latest on-disk dataset under the cross-process
// lock and writes the result back atomically.
func (s *Store) mutate(ctx context.Context, fn func(*Dataset) error) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStoreError("write dataset", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.NewStoreError("create dataset directory", err)
	}
	fl := newFileLock(s.path)
	if err := fl.lock(); err != nil {
		return errors.NewStoreError("acquire lock", err)
	}
	defer func() { _ = fl.unlock() }()

	ds, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&ds); err != nil {
		return err
	}
	if err := s.write(&ds); err != nil {
		return err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return errors.NewStoreError("stat dataset", err)
	}
	s.mu.Lock()
	s.data = ds
	s.modTime = info.ModTime()
	s.size = info.Size()
	s.mu.Unlock()
	return nil
}

// write replaces the dataset file via a temporary file and rename.
func (s *Store) write(ds *Dataset) error {
	data, err := s.codec.encode(ds)
	if err != nil {
		return errors.NewStoreError("encode dataset", err).WithRetryable(false)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewStoreError("write temp file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewStoreError("rename temp file", fmt.Errorf("%s: %w", s.path, err))
	}
	return nil
}
