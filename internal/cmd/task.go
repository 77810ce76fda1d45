package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/store"
	"github.com/Iron-Ham/taskwatch/internal/util"
)

const listTitleWidth = 48

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List or add tasks in the dataset",
	}
	cmd.AddCommand(newTaskListCmd(), newTaskAddCmd())
	return cmd
}

func newTaskListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE:  runTaskList,
	}
	cmd.Flags().StringSlice("status", nil, "only show tasks with these statuses")
	cmd.Flags().Int64("assignee", -1, "only show tasks assigned to this employee id")
	return cmd
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	var filter store.TaskFilter
	statuses, _ := cmd.Flags().GetStringSlice("status")
	for _, raw := range statuses {
		var s model.Status
		if err := s.UnmarshalText([]byte(raw)); err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	if cmd.Flags().Changed("assignee") {
		id, _ := cmd.Flags().GetInt64("assignee")
		filter.AssigneeID = &id
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	tasks, err := a.data.Tasks(cmd.Context(), filter)
	if err != nil {
		return err
	}

	tbl := newTable("ID", "TITLE", "STATUS", "PRIORITY", "DUE", "ASSIGNEE")
	for _, t := range tasks {
		due, assignee := "-", "-"
		if t.Due != nil {
			due = t.Due.Local().Format("2006-01-02 15:04")
		}
		if t.AssigneeID != nil {
			assignee = fmt.Sprint(*t.AssigneeID)
		}
		tbl.Row(strconv.FormatInt(t.ID, 10), util.Truncate(t.Title, listTitleWidth), t.Status.String(), t.Priority.String(), due, assignee)
	}
	return printTable(cmd.OutOrStdout(), tbl)
}

func newTaskAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  taskwatch task add "Quarterly report" --due 2026-03-31T17:00:00Z --priority high --department 2 --skills excel`,
		Args: cobra.ExactArgs(1),
		RunE: runTaskAdd,
	}
	cmd.Flags().String("due", "", "due time (RFC 3339)")
	cmd.Flags().String("priority", "normal", "priority: low, normal, high, critical")
	cmd.Flags().Int64("department", 0, "department id")
	cmd.Flags().String("skills", "", "required skills")
	cmd.Flags().Float64("hours", 0, "estimated hours")
	return cmd
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	task := model.Task{Title: args[0], Status: model.StatusPending}

	if raw, _ := cmd.Flags().GetString("due"); raw != "" {
		due, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --due: %w", err)
		}
		task.Due = &due
	}
	raw, _ := cmd.Flags().GetString("priority")
	if err := task.Priority.UnmarshalText([]byte(raw)); err != nil {
		return err
	}
	task.DepartmentID, _ = cmd.Flags().GetInt64("department")
	task.RequiredSkills, _ = cmd.Flags().GetString("skills")
	task.EstimatedHours, _ = cmd.Flags().GetFloat64("hours")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	created, err := a.data.CreateTask(cmd.Context(), task)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", created.ID, created.Title)
	return nil
}
