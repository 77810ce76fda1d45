// Command taskwatch monitors task deadlines and meetings, recommends task
// assignees, and reports workload anomalies.
package main

import (
	"os"

	"github.com/Iron-Ham/taskwatch/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
