package store

import (
	"context"
	"slices"
	"time"

	"github.com/Iron-Ham/taskwatch/internal/model"
)

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	// Statuses restricts the result to these statuses.
	Statuses []model.Status
	// AssigneeID restricts the result to tasks assigned to this employee.
	AssigneeID *int64
	// DueFrom and DueTo bound the due time inclusively. Tasks without a
	// due time are excluded when either bound is set.
	DueFrom *time.Time
	DueTo   *time.Time
}

// Match reports whether t satisfies the filter.
func (f TaskFilter) Match(t model.Task) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.AssigneeID != nil && !t.IsAssignedTo(*f.AssigneeID) {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.Due == nil {
			return false
		}
		if f.DueFrom != nil && t.Due.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.Due.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// EmployeeFilter narrows an employee listing. Zero values match everything.
type EmployeeFilter struct {
	DepartmentID *int64
}

// Match reports whether e satisfies the filter.
func (f EmployeeFilter) Match(e model.Employee) bool {
	return f.DepartmentID == nil || e.DepartmentID == *f.DepartmentID
}

// MeetingFilter narrows a meeting listing by start time and participant.
type MeetingFilter struct {
	// From and To bound the start time inclusively. Zero times are open.
	From time.Time
	To   time.Time
	// EmployeeID restricts the result to meetings the employee organizes
	// or attends.
	EmployeeID *int64
}

// Match reports whether m satisfies the filter.
func (f MeetingFilter) Match(m model.Meeting) bool {
	if !f.From.IsZero() && m.Start.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && m.Start.After(f.To) {
		return false
	}
	if f.EmployeeID != nil && !m.Involves(*f.EmployeeID) {
		return false
	}
	return true
}

// TaskStore reads and writes tasks.
type TaskStore interface {
	Tasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	// CreateTask stores a new task and returns it with its assigned id.
	CreateTask(ctx context.Context, task model.Task) (model.Task, error)
	// UpdateTask replaces the stored task with the same id.
	UpdateTask(ctx context.Context, task model.Task) error
}

// EmployeeStore reads employees.
type EmployeeStore interface {
	Employees(ctx context.Context, filter EmployeeFilter) ([]model.Employee, error)
	// Employee returns a single employee or an error matching
	// errors.ErrEmployeeNotFound.
	Employee(ctx context.Context, id int64) (model.Employee, error)
}

// MeetingStore reads meetings.
type MeetingStore interface {
	Meetings(ctx context.Context, filter MeetingFilter) ([]model.Meeting, error)
}
