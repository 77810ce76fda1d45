package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// UnmarshalText parses a status case-insensitively.
func (s *Status) UnmarshalText(text []byte) error {
	v := Status(normalize(string(text)))
	if !v.Valid() {
		return fmt.Errorf("unknown task status %q", string(text))
	}
	*s = v
	return nil
}

// Priority is the urgency class of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// IsUrgent returns true for High and Critical.
func (p Priority) IsUrgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// UnmarshalText parses a priority case-insensitively.
func (p *Priority) UnmarshalText(text []byte) error {
	v := Priority(normalize(string(text)))
	if !v.Valid() {
		return fmt.Errorf("unknown task priority %q", string(text))
	}
	*p = v
	return nil
}

// AnomalyType classifies a detected anomaly. Only Overdue and
// WorkloadOverload are produced by the anomaly package; the others exist so
// that stored anomalies from other producers round-trip.
type AnomalyType string

const (
	AnomalyOverdue          AnomalyType = "overdue"
	AnomalyWorkloadOverload AnomalyType = "workload_overload"
	AnomalyStuckTask        AnomalyType = "stuck_task"
	AnomalyQualityIssue     AnomalyType = "quality_issue"
)

// String returns the string representation of the anomaly type.
func (t AnomalyType) String() string {
	return string(t)
}

// Valid reports whether t is one of the defined anomaly types.
func (t AnomalyType) Valid() bool {
	switch t {
	case AnomalyOverdue, AnomalyWorkloadOverload, AnomalyStuckTask, AnomalyQualityIssue:
		return true
	}
	return false
}

// Severity ranks how much attention an anomaly needs.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// normalize lowercases and maps camel case, dashes and spaces onto the
// snake_case spelling used by the constants.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
