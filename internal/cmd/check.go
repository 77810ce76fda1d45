package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single deadline and meeting scan",
		Long: `Check runs one monitor tick, prints any notifications, and exits. It fails
when the task store cannot be read.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	rep := a.monitor(cmd.OutOrStdout()).Tick(cmd.Context())
	if rep.TaskErr != nil {
		return fmt.Errorf("scan tasks: %w", rep.TaskErr)
	}
	if rep.MeetingErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: meetings unavailable: %v\n", rep.MeetingErr)
	}
	if len(rep.Notifications) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No deadlines or meetings need attention.")
	}
	return nil
}
