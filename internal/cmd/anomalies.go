package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnomaliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "List overdue tasks and overloaded employees",
		Args:  cobra.NoArgs,
		RunE:  runAnomalies,
	}
	cmd.Flags().Bool("json", false, "print anomalies as JSON")
	return cmd
}

func runAnomalies(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	found, err := a.detector().Scan(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON {
		if found == nil {
			_, err := fmt.Fprintln(out, "[]")
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}

	if len(found) == 0 {
		fmt.Fprintln(out, "No anomalies found.")
		return nil
	}
	for _, an := range found {
		fmt.Fprintf(out, "%-8s %-17s %s\n", strings.ToUpper(an.Severity.String()), an.Type, an.Message)
	}
	return nil
}
