package monitor

import (
	"time"

	"github.com/Iron-Ham/taskwatch/internal/config"
)

// Settings holds the monitor's timing thresholds.
type Settings struct {
	// Interval is the tick period. Changes apply from the next Start.
	Interval time.Duration
	// DeadlineWarning is how long before its due time a task is approaching.
	DeadlineWarning time.Duration
	// MeetingReminder is how long before its start a meeting is announced.
	MeetingReminder time.Duration
	// ScanWindow bounds the due dates considered to [now-w, now+w].
	ScanWindow time.Duration
}

// DefaultSettings returns the standard thresholds.
func DefaultSettings() Settings {
	return Settings{
		Interval:        60 * time.Second,
		DeadlineWarning: 2 * time.Hour,
		MeetingReminder: 15 * time.Minute,
		ScanWindow:      24 * time.Hour,
	}
}

// SettingsFromConfig converts the monitor configuration section.
func SettingsFromConfig(cfg config.MonitorConfig) Settings {
	return Settings{
		Interval:        cfg.CheckInterval(),
		DeadlineWarning: cfg.DeadlineWarning(),
		MeetingReminder: cfg.MeetingReminder(),
		ScanWindow:      cfg.ScanWindow(),
	}
}

// withDefaults fills zero fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Interval <= 0 {
		s.Interval = d.Interval
	}
	if s.DeadlineWarning <= 0 {
		s.DeadlineWarning = d.DeadlineWarning
	}
	if s.MeetingReminder <= 0 {
		s.MeetingReminder = d.MeetingReminder
	}
	if s.ScanWindow <= 0 {
		s.ScanWindow = d.ScanWindow
	}
	return s
}
