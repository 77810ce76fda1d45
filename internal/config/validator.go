package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "monitor.check_interval_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log line encodings
func ValidLogFormats() []string {
	return []string{"json", "text"}
}

// ValidStoreExtensions returns the dataset file extensions the file store can decode
func ValidStoreExtensions() []string {
	return []string{".yaml", ".yml", ".toml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateMonitor()...)
	errors = append(errors, c.validateAnomaly()...)
	errors = append(errors, c.validateCompletion()...)
	errors = append(errors, c.validateStore()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateMonitor validates the MonitorConfig
func (c *Config) validateMonitor() []ValidationError {
	var errors []ValidationError

	// Sub-second ticks would hammer the stores
	const minCheckInterval = 1000
	if c.Monitor.CheckIntervalMs < minCheckInterval {
		errors = append(errors, ValidationError{
			Field:   "monitor.check_interval_ms",
			Value:   c.Monitor.CheckIntervalMs,
			Message: fmt.Sprintf("must be at least %dms", minCheckInterval),
		})
	}

	if c.Monitor.DeadlineWarningMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.deadline_warning_minutes",
			Value:   c.Monitor.DeadlineWarningMinutes,
			Message: "must be positive",
		})
	}

	if c.Monitor.MeetingReminderMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.meeting_reminder_minutes",
			Value:   c.Monitor.MeetingReminderMinutes,
			Message: "must be positive",
		})
	}

	if c.Monitor.ScanWindowHours <= 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.scan_window_hours",
			Value:   c.Monitor.ScanWindowHours,
			Message: "must be positive",
		})
	}

	// The scan window must cover the warning window or approaching tasks are never seen
	if c.Monitor.ScanWindowHours > 0 && c.Monitor.DeadlineWarningMinutes > c.Monitor.ScanWindowHours*60 {
		errors = append(errors, ValidationError{
			Field:   "monitor.deadline_warning_minutes",
			Value:   c.Monitor.DeadlineWarningMinutes,
			Message: "must not exceed monitor.scan_window_hours",
		})
	}

	return errors
}

// validateAnomaly validates the AnomalyConfig
func (c *Config) validateAnomaly() []ValidationError {
	var errors []ValidationError

	if c.Anomaly.OverdueDays <= 0 {
		errors = append(errors, ValidationError{
			Field:   "anomaly.overdue_days",
			Value:   c.Anomaly.OverdueDays,
			Message: "must be positive",
		})
	}

	if c.Anomaly.CriticalOverdueDays < c.Anomaly.OverdueDays {
		errors = append(errors, ValidationError{
			Field:   "anomaly.critical_overdue_days",
			Value:   c.Anomaly.CriticalOverdueDays,
			Message: "must be at least anomaly.overdue_days",
		})
	}

	if c.Anomaly.WorkloadRatio <= 0 || c.Anomaly.WorkloadRatio > 1 {
		errors = append(errors, ValidationError{
			Field:   "anomaly.workload_ratio",
			Value:   c.Anomaly.WorkloadRatio,
			Message: "must be greater than 0 and at most 1",
		})
	}

	if c.Anomaly.PendingTaskLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "anomaly.pending_task_limit",
			Value:   c.Anomaly.PendingTaskLimit,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateCompletion validates the CompletionConfig
func (c *Config) validateCompletion() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), c.Completion.Backend) {
		errors = append(errors, ValidationError{
			Field:   "completion.backend",
			Value:   c.Completion.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	if c.Completion.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "completion.timeout_seconds",
			Value:   c.Completion.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	const maxRetries = 10
	if c.Completion.MaxRetries < 0 || c.Completion.MaxRetries > maxRetries {
		errors = append(errors, ValidationError{
			Field:   "completion.max_retries",
			Value:   c.Completion.MaxRetries,
			Message: fmt.Sprintf("must be between 0 and %d", maxRetries),
		})
	}

	if c.Completion.InitialBackoffMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "completion.initial_backoff_ms",
			Value:   c.Completion.InitialBackoffMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if c.Store.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "store.path",
			Value:   c.Store.Path,
			Message: "cannot be empty",
		})
	} else if ext := strings.ToLower(filepath.Ext(c.Store.Path)); !slices.Contains(ValidStoreExtensions(), ext) {
		errors = append(errors, ValidationError{
			Field:   "store.path",
			Value:   c.Store.Path,
			Message: fmt.Sprintf("extension must be one of: %s", strings.Join(ValidStoreExtensions(), ", ")),
		})
	}

	cal := c.Store.Calendar
	if cal.Enabled {
		if cal.CalendarID == "" {
			errors = append(errors, ValidationError{
				Field:   "store.calendar.calendar_id",
				Value:   cal.CalendarID,
				Message: "cannot be empty when the calendar is enabled",
			})
		}
		if cal.CredentialsFile == "" {
			errors = append(errors, ValidationError{
				Field:   "store.calendar.credentials_file",
				Value:   cal.CredentialsFile,
				Message: "is required when the calendar is enabled",
			})
		}
		if cal.TokenFile == "" {
			errors = append(errors, ValidationError{
				Field:   "store.calendar.token_file",
				Value:   cal.TokenFile,
				Message: "is required when the calendar is enabled",
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
