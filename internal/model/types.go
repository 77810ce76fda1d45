package model

import (
	"strconv"
	"time"
)

// Task is a unit of assignable work.
type Task struct {
	ID             int64      `json:"id" yaml:"id" toml:"id"`
	Title          string     `json:"title" yaml:"title" toml:"title"`
	Status         Status     `json:"status" yaml:"status" toml:"status"`
	Priority       Priority   `json:"priority" yaml:"priority" toml:"priority"`
	Due            *time.Time `json:"due,omitempty" yaml:"due,omitempty" toml:"due,omitempty"`
	AssigneeID     *int64     `json:"assignee_id,omitempty" yaml:"assignee_id,omitempty" toml:"assignee_id,omitempty"`
	DepartmentID   int64      `json:"department_id" yaml:"department_id" toml:"department_id"`
	RequiredSkills string     `json:"required_skills,omitempty" yaml:"required_skills,omitempty" toml:"required_skills,omitempty"`
	EstimatedHours float64    `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty" toml:"estimated_hours,omitempty"`
	ActualHours    float64    `json:"actual_hours,omitempty" yaml:"actual_hours,omitempty" toml:"actual_hours,omitempty"`
}

// IsAssignedTo reports whether the task is assigned to the given employee.
func (t Task) IsAssignedTo(employeeID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == employeeID
}

// Assign sets the assignee. Passing nil clears it.
func (t *Task) Assign(employeeID *int64) {
	if employeeID == nil {
		t.AssigneeID = nil
		return
	}
	id := *employeeID
	t.AssigneeID = &id
}

// Employee is a candidate for task assignment.
type Employee struct {
	ID              int64   `json:"id" yaml:"id" toml:"id"`
	Name            string  `json:"name" yaml:"name" toml:"name"`
	Email           string  `json:"email,omitempty" yaml:"email,omitempty" toml:"email,omitempty"`
	DepartmentID    int64   `json:"department_id" yaml:"department_id" toml:"department_id"`
	Skills          string  `json:"skills,omitempty" yaml:"skills,omitempty" toml:"skills,omitempty"`
	CurrentWorkload float64 `json:"current_workload" yaml:"current_workload" toml:"current_workload"`
	MaxWorkload     float64 `json:"max_workload" yaml:"max_workload" toml:"max_workload"`
}

// WorkloadPercentage returns CurrentWorkload/MaxWorkload*100, or 0 when
// MaxWorkload is not positive.
func (e Employee) WorkloadPercentage() float64 {
	if e.MaxWorkload <= 0 {
		return 0
	}
	return e.CurrentWorkload / e.MaxWorkload * 100
}

// DisplayName returns the name, falling back to the numeric id.
func (e Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return "employee #" + strconv.FormatInt(e.ID, 10)
}

// Meeting is a scheduled meeting.
type Meeting struct {
	ID           int64     `json:"id" yaml:"id" toml:"id"`
	Title        string    `json:"title" yaml:"title" toml:"title"`
	Start        time.Time `json:"start" yaml:"start" toml:"start"`
	End          time.Time `json:"end" yaml:"end" toml:"end"`
	OrganizerID  int64     `json:"organizer_id" yaml:"organizer_id" toml:"organizer_id"`
	AttendeeIDs  []int64   `json:"attendee_ids,omitempty" yaml:"attendee_ids,omitempty" toml:"attendee_ids,omitempty"`
	ReminderSent bool      `json:"reminder_sent,omitempty" yaml:"reminder_sent,omitempty" toml:"reminder_sent,omitempty"`
}

// Involves reports whether the employee organizes or attends the meeting.
func (m Meeting) Involves(employeeID int64) bool {
	if m.OrganizerID == employeeID {
		return true
	}
	for _, id := range m.AttendeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Anomaly is a flagged irregular condition. TaskID is nil for
// employee-level anomalies.
type Anomaly struct {
	TaskID     *int64      `json:"task_id,omitempty"`
	EmployeeID *int64      `json:"employee_id,omitempty"`
	Type       AnomalyType `json:"type"`
	Severity   Severity    `json:"severity"`
	Message    string      `json:"message"`
	DetectedAt time.Time   `json:"detected_at"`
}

// Candidate is one scored employee in a recommendation.
type Candidate struct {
	Employee Employee `json:"employee"`
	Score    float64  `json:"score"`
}

// Recommendation is the ranked result of scoring a candidate pool for a
// task. Alternatives holds at most three candidates in descending score
// order and starts with the recommended employee.
type Recommendation struct {
	TaskID       int64       `json:"task_id"`
	Employee     Employee    `json:"employee"`
	Score        float64     `json:"score"`
	Rationale    string      `json:"rationale"`
	Alternatives []Candidate `json:"alternatives"`
}
