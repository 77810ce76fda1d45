package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/taskwatch/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View taskwatch configuration",
		Long: `View taskwatch configuration.

Without arguments, displays the effective configuration after defaults,
the config file and TASKWATCH_* environment variables are applied.`,
		RunE: runConfigShow,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create a default config file",
			Long:  `Create a default config file at ~/.config/taskwatch/config.yaml with all available options.`,
			RunE:  runConfigInit,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			RunE:  runConfigPath,
		},
	)
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if _, err := config.Load(); err != nil {
		fmt.Fprintf(out, "Configuration has errors:\n%v\n\n", err)
	}

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n\n")
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

const defaultConfigContent = `# Taskwatch Configuration

# Deadline monitor
monitor:
  # Tick period in milliseconds
  check_interval_ms: 60000
  # A task due within this many minutes is "approaching"
  deadline_warning_minutes: 120
  # Meetings starting within this many minutes trigger a reminder
  meeting_reminder_minutes: 15
  # Only tasks due within this many hours either side of now are scanned
  scan_window_hours: 24

# Anomaly detection
anomaly:
  overdue_days: 3
  critical_overdue_days: 7
  workload_ratio: 0.8
  pending_task_limit: 5

# Recommendation rationales
# Backends: none, anthropic (ANTHROPIC_API_KEY), openai (OPENAI_API_KEY)
completion:
  backend: none
  model: ""
  timeout_seconds: 120
  max_retries: 2
  initial_backoff_ms: 500

# Data sources
store:
  # Dataset file; .yaml, .yml or .toml
  path: taskwatch.yaml
  # Read meetings from Google Calendar instead of the dataset
  calendar:
    enabled: false
    calendar_id: primary
    credentials_file: ""
    token_file: ""

notify:
  # Style console notifications when writing to a terminal
  color: true

metrics:
  # Prometheus listen address for 'taskwatch watch', e.g. ":9090"
  address: ""

logging:
  # debug, info, warn, error
  level: info
  # json or text
  format: json
  # Empty logs to stderr
  file: ""
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/taskwatch/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: TASKWATCH_* (e.g., TASKWATCH_STORE_PATH)")
	return nil
}
