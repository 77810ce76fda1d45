package recommend

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/scoring"
	"github.com/Iron-Ham/taskwatch/internal/util"
)

const maxPromptTitle = 200

// rationalePrompt is the template for the completion request. It receives
// the task summary and the candidate list.
const rationalePrompt = `A task needs an owner. Candidates were scored out of 100 on remaining capacity (40), skill match (30), same department (20) and open task count (10).

Task:
%s

Top candidates, best first:
%s
%d employees were considered in total.

In two or three sentences, explain why %s is the best fit. Mention the strongest factors and any trade-off against the runner-up. Respond with the explanation only.`

func buildPrompt(task model.Task, ranked []model.Candidate, allTasks []model.Task) string {
	var ts strings.Builder
	fmt.Fprintf(&ts, "- title: %s\n", util.Truncate(task.Title, maxPromptTitle))
	fmt.Fprintf(&ts, "- priority: %s\n", task.Priority)
	fmt.Fprintf(&ts, "- department: %d\n", task.DepartmentID)
	if task.RequiredSkills != "" {
		fmt.Fprintf(&ts, "- required skills: %s\n", task.RequiredSkills)
	}
	if task.Due != nil {
		fmt.Fprintf(&ts, "- due: %s\n", task.Due.Format("2006-01-02 15:04"))
	}
	if task.EstimatedHours > 0 {
		fmt.Fprintf(&ts, "- estimated hours: %.1f\n", task.EstimatedHours)
	}

	var cs strings.Builder
	for i, c := range topN(ranked, maxAlternatives) {
		b := scoring.Compute(c.Employee, task, allTasks)
		fmt.Fprintf(&cs, "%d. %s (department %d, workload %.0f%%, skills: %s) score %.1f: %s\n",
			i+1,
			c.Employee.DisplayName(),
			c.Employee.DepartmentID,
			c.Employee.WorkloadPercentage(),
			orNone(c.Employee.Skills),
			c.Score,
			b)
	}

	return fmt.Sprintf(rationalePrompt,
		strings.TrimSuffix(ts.String(), "\n"),
		cs.String(),
		len(ranked),
		ranked[0].Employee.DisplayName())
}

// fallbackRationale is used when no completion is available.
func fallbackRationale(best model.Candidate, poolSize int) string {
	noun := "candidates"
	if poolSize == 1 {
		noun = "candidate"
	}
	return fmt.Sprintf("%s has the highest fit score (%.1f) of %d %s",
		best.Employee.DisplayName(), best.Score, poolSize, noun)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none listed"
	}
	return s
}
