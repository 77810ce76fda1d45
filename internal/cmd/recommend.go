package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/recommend"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend an employee for a task",
		Long: `Recommend scores every employee for the task and prints the best fit with up
to two alternatives. With a completion backend configured, the rationale is
written by the model; otherwise a short generated explanation is used.`,
		Example: `  taskwatch recommend --task 12
  taskwatch recommend --task 12 --explain
  taskwatch recommend --task 12 --assign`,
		Args: cobra.NoArgs,
		RunE: runRecommend,
	}
	cmd.Flags().Int64("task", 0, "task id (required)")
	cmd.Flags().Bool("assign", false, "assign the task to the recommended employee")
	cmd.Flags().Bool("explain", false, "print the score breakdown for every employee")
	cmd.Flags().Bool("json", false, "print the recommendation as JSON")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	taskID, _ := cmd.Flags().GetInt64("task")
	doAssign, _ := cmd.Flags().GetBool("assign")
	explain, _ := cmd.Flags().GetBool("explain")
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.recommender()
	if err != nil {
		return err
	}

	rec, err := svc.RecommendForTask(cmd.Context(), taskID)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return err
		}
	} else {
		printRecommendation(out, rec)
	}

	if explain {
		rows, err := svc.Explain(cmd.Context(), taskID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		printExplanation(out, rows)
	}

	if doAssign {
		if _, err := svc.Assign(cmd.Context(), taskID, rec.Employee.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nAssigned task %d to %s\n", taskID, rec.Employee.DisplayName())
	}
	return nil
}

func printRecommendation(w io.Writer, rec *model.Recommendation) {
	fmt.Fprintf(w, "Recommended: %s (score %.1f)\n", rec.Employee.DisplayName(), rec.Score)
	fmt.Fprintf(w, "Rationale:   %s\n", rec.Rationale)
	fmt.Fprintln(w, "Candidates:")
	for i, c := range rec.Alternatives {
		fmt.Fprintf(w, "  %d. %-20s %5.1f\n", i+1, c.Employee.DisplayName(), c.Score)
	}
}

func printExplanation(w io.Writer, rows []recommend.Explanation) {
	tbl := newTable("EMPLOYEE", "WORKLOAD", "SKILLS", "DEPARTMENT", "LOAD", "ACTIVE", "TOTAL")
	for _, r := range rows {
		tbl.Row(
			r.Employee.DisplayName(),
			fmt.Sprintf("%.1f", r.Breakdown.Workload),
			fmt.Sprintf("%.0f", r.Breakdown.SkillMatch),
			fmt.Sprintf("%.0f", r.Breakdown.Department),
			fmt.Sprintf("%.0f", r.Breakdown.LoadPenalty),
			strconv.Itoa(r.Breakdown.ActiveTasks),
			fmt.Sprintf("%.1f", r.Score))
	}
	_ = printTable(w, tbl)
}

func newAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task-id> <employee-id>",
		Short: "Assign a task to an employee",
		Args:  cobra.ExactArgs(2),
		RunE:  runAssign,
	}
}

func runAssign(cmd *cobra.Command, args []string) error {
	taskID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}
	employeeID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid employee id %q", args[1])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.recommender()
	if err != nil {
		return err
	}
	task, err := svc.Assign(cmd.Context(), taskID, employeeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Assigned task %d (%s) to employee %d\n", task.ID, task.Title, employeeID)
	return nil
}
