package scoring

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Iron-Ham/taskwatch/internal/model"
)

// Component weights.
const (
	WorkloadWeight   = 40.0
	SkillWeight      = 30.0
	DepartmentWeight = 20.0
	LoadWeight       = 10.0

	// MaxScore is the largest possible score.
	MaxScore = WorkloadWeight + SkillWeight + DepartmentWeight + LoadWeight
)

// Breakdown holds the individual terms that make up a score.
type Breakdown struct {
	Workload    float64 `json:"workload"`
	SkillMatch  float64 `json:"skill_match"`
	Department  float64 `json:"department"`
	LoadPenalty float64 `json:"load"`
	ActiveTasks int     `json:"active_tasks"`
}

// Total returns the sum of all terms.
func (b Breakdown) Total() float64 {
	return b.Workload + b.SkillMatch + b.Department + b.LoadPenalty
}

// String renders the breakdown for logs and prompts.
func (b Breakdown) String() string {
	return fmt.Sprintf("workload=%.1f skills=%.0f department=%.0f load=%.0f (active tasks: %d)",
		b.Workload, b.SkillMatch, b.Department, b.LoadPenalty, b.ActiveTasks)
}

// Score returns the fit of employee for task in [0, MaxScore]. allTasks is
// used to count the employee's active assignments.
func Score(employee model.Employee, task model.Task, allTasks []model.Task) float64 {
	return Compute(employee, task, allTasks).Total()
}

// Compute returns the per-term breakdown of Score.
func Compute(employee model.Employee, task model.Task, allTasks []model.Task) Breakdown {
	active := ActiveTasks(employee.ID, allTasks)

	b := Breakdown{
		Workload:    workloadTerm(employee),
		ActiveTasks: active,
		LoadPenalty: max(0, LoadWeight-float64(active)),
	}
	if SkillsMatch(employee.Skills, task.RequiredSkills) {
		b.SkillMatch = SkillWeight
	}
	if employee.DepartmentID == task.DepartmentID {
		b.Department = DepartmentWeight
	}
	return b
}

// ActiveTasks counts tasks assigned to employeeID that are not completed.
func ActiveTasks(employeeID int64, tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.IsAssignedTo(employeeID) && t.Status != model.StatusCompleted {
			n++
		}
	}
	return n
}

// SkillsMatch reports whether either skill text contains the other after
// Unicode case folding. Empty texts never match.
func SkillsMatch(employeeSkills, requiredSkills string) bool {
	if employeeSkills == "" || requiredSkills == "" {
		return false
	}
	// Casers carry state and must not be shared across goroutines.
	fold := cases.Fold()
	have := fold.String(employeeSkills)
	want := fold.String(requiredSkills)
	return strings.Contains(have, want) || strings.Contains(want, have)
}

func workloadTerm(e model.Employee) float64 {
	ratio := 0.0
	if e.MaxWorkload > 0 {
		ratio = min(max(e.CurrentWorkload/e.MaxWorkload, 0), 1)
	}
	return (1 - ratio) * WorkloadWeight
}
