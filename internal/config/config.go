package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete taskwatch configuration
type Config struct {
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Anomaly    AnomalyConfig    `mapstructure:"anomaly"`
	Completion CompletionConfig `mapstructure:"completion"`
	Store      StoreConfig      `mapstructure:"store"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// MonitorConfig controls the deadline monitor
type MonitorConfig struct {
	// CheckIntervalMs is the tick period in milliseconds (default: 60000)
	CheckIntervalMs int `mapstructure:"check_interval_ms"`
	// DeadlineWarningMinutes is how long before a due time a task counts as
	// approaching (default: 120)
	DeadlineWarningMinutes int `mapstructure:"deadline_warning_minutes"`
	// MeetingReminderMinutes is how long before a meeting a reminder fires (default: 15)
	MeetingReminderMinutes int `mapstructure:"meeting_reminder_minutes"`
	// ScanWindowHours bounds the due dates considered per tick to
	// [now-window, now+window] (default: 24)
	ScanWindowHours int `mapstructure:"scan_window_hours"`
}

// AnomalyConfig controls anomaly classification thresholds
type AnomalyConfig struct {
	// OverdueDays is the number of days past due before a task is flagged (default: 3)
	OverdueDays float64 `mapstructure:"overdue_days"`
	// CriticalOverdueDays escalates an overdue anomaly to critical (default: 7)
	CriticalOverdueDays float64 `mapstructure:"critical_overdue_days"`
	// WorkloadRatio is the workload fraction above which an employee can be
	// overloaded (default: 0.8)
	WorkloadRatio float64 `mapstructure:"workload_ratio"`
	// PendingTaskLimit is the pending task count that must be exceeded (default: 5)
	PendingTaskLimit int `mapstructure:"pending_task_limit"`
}

// CompletionConfig controls the LLM used for recommendation rationales
type CompletionConfig struct {
	// Backend selects the provider: "none", "anthropic" or "openai" (default: "none")
	Backend string `mapstructure:"backend"`
	// Model overrides the backend's default model
	Model string `mapstructure:"model"`
	// TimeoutSeconds bounds the whole rationale call including retries (default: 120)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// MaxRetries is the number of retries for retryable failures (default: 2)
	MaxRetries int `mapstructure:"max_retries"`
	// InitialBackoffMs is the first retry delay; it doubles per attempt (default: 500)
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
}

// StoreConfig controls where tasks, employees and meetings come from
type StoreConfig struct {
	// Path is the dataset file (.yaml, .yml or .toml) (default: "taskwatch.yaml")
	Path string `mapstructure:"path"`
	// Calendar reads meetings from Google Calendar instead of the dataset
	Calendar CalendarConfig `mapstructure:"calendar"`
}

// CalendarConfig configures the Google Calendar meeting store
type CalendarConfig struct {
	// Enabled switches the meeting store to Google Calendar (default: false)
	Enabled bool `mapstructure:"enabled"`
	// CalendarID is the calendar to read (default: "primary")
	CalendarID string `mapstructure:"calendar_id"`
	// CredentialsFile is the OAuth2 client secrets JSON downloaded from Google
	CredentialsFile string `mapstructure:"credentials_file"`
	// TokenFile is a previously authorized OAuth2 token JSON
	TokenFile string `mapstructure:"token_file"`
}

// NotifyConfig controls notification delivery
type NotifyConfig struct {
	// Color styles console notifications when stdout is a terminal (default: true)
	Color bool `mapstructure:"color"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Address is the listen address for /metrics; empty disables it
	Address string `mapstructure:"address"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Format is the line encoding: "json" or "text" (default: "json")
	Format string `mapstructure:"format"`
	// File is the log file path; empty logs to stderr
	File string `mapstructure:"file"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			CheckIntervalMs:        60000,
			DeadlineWarningMinutes: 120,
			MeetingReminderMinutes: 15,
			ScanWindowHours:        24,
		},
		Anomaly: AnomalyConfig{
			OverdueDays:         3,
			CriticalOverdueDays: 7,
			WorkloadRatio:       0.8,
			PendingTaskLimit:    5,
		},
		Completion: CompletionConfig{
			Backend:          "none",
			Model:            "",
			TimeoutSeconds:   120,
			MaxRetries:       2,
			InitialBackoffMs: 500,
		},
		Store: StoreConfig{
			Path: "taskwatch.yaml",
			Calendar: CalendarConfig{
				Enabled:    false,
				CalendarID: "primary",
			},
		},
		Notify: NotifyConfig{
			Color: true,
		},
		Metrics: MetricsConfig{
			Address: "", // Disabled by default
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// CheckInterval returns the tick period as a time.Duration
func (c *MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMs) * time.Millisecond
}

// DeadlineWarning returns the approaching-deadline window
func (c *MonitorConfig) DeadlineWarning() time.Duration {
	return time.Duration(c.DeadlineWarningMinutes) * time.Minute
}

// MeetingReminder returns the meeting reminder window
func (c *MonitorConfig) MeetingReminder() time.Duration {
	return time.Duration(c.MeetingReminderMinutes) * time.Minute
}

// ScanWindow returns the half-width of the deadline scan window
func (c *MonitorConfig) ScanWindow() time.Duration {
	return time.Duration(c.ScanWindowHours) * time.Hour
}

// Timeout returns the completion timeout
func (c *CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InitialBackoff returns the first retry delay
func (c *CompletionConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Monitor defaults
	viper.SetDefault("monitor.check_interval_ms", defaults.Monitor.CheckIntervalMs)
	viper.SetDefault("monitor.deadline_warning_minutes", defaults.Monitor.DeadlineWarningMinutes)
	viper.SetDefault("monitor.meeting_reminder_minutes", defaults.Monitor.MeetingReminderMinutes)
	viper.SetDefault("monitor.scan_window_hours", defaults.Monitor.ScanWindowHours)

	// Anomaly defaults
	viper.SetDefault("anomaly.overdue_days", defaults.Anomaly.OverdueDays)
	viper.SetDefault("anomaly.critical_overdue_days", defaults.Anomaly.CriticalOverdueDays)
	viper.SetDefault("anomaly.workload_ratio", defaults.Anomaly.WorkloadRatio)
	viper.SetDefault("anomaly.pending_task_limit", defaults.Anomaly.PendingTaskLimit)

	// Completion defaults
	viper.SetDefault("completion.backend", defaults.Completion.Backend)
	viper.SetDefault("completion.model", defaults.Completion.Model)
	viper.SetDefault("completion.timeout_seconds", defaults.Completion.TimeoutSeconds)
	viper.SetDefault("completion.max_retries", defaults.Completion.MaxRetries)
	viper.SetDefault("completion.initial_backoff_ms", defaults.Completion.InitialBackoffMs)

	// Store defaults
	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("store.calendar.enabled", defaults.Store.Calendar.Enabled)
	viper.SetDefault("store.calendar.calendar_id", defaults.Store.Calendar.CalendarID)
	viper.SetDefault("store.calendar.credentials_file", defaults.Store.Calendar.CredentialsFile)
	viper.SetDefault("store.calendar.token_file", defaults.Store.Calendar.TokenFile)

	// Notify defaults
	viper.SetDefault("notify.color", defaults.Notify.Color)

	// Metrics defaults
	viper.SetDefault("metrics.address", defaults.Metrics.Address)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded values do not unmarshal or validate
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskwatch"
	}
	return filepath.Join(home, ".config", "taskwatch")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidBackends returns the list of valid completion backends
func ValidBackends() []string {
	return []string{"none", "anthropic", "openai"}
}
