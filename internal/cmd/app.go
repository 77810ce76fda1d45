package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/taskwatch/internal/anomaly"
	"github.com/Iron-Ham/taskwatch/internal/completion"
	"github.com/Iron-Ham/taskwatch/internal/config"
	"github.com/Iron-Ham/taskwatch/internal/event"
	"github.com/Iron-Ham/taskwatch/internal/logging"
	"github.com/Iron-Ham/taskwatch/internal/monitor"
	"github.com/Iron-Ham/taskwatch/internal/notify"
	"github.com/Iron-Ham/taskwatch/internal/recommend"
	"github.com/Iron-Ham/taskwatch/internal/store"
	"github.com/Iron-Ham/taskwatch/internal/store/filestore"
	"github.com/Iron-Ham/taskwatch/internal/store/gcal"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	bus      *event.Bus
	data     *filestore.Store
	meetings store.MeetingStore
}

// newApp loads configuration and opens the stores.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := createLogger(cfg)

	data, err := filestore.Open(cfg.Store.Path)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		bus:      event.NewBus(logger),
		data:     data,
		meetings: data,
	}

	if cfg.Store.Calendar.Enabled {
		meetings, err := a.calendarStore(ctx)
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		a.meetings = meetings
	}
	return a, nil
}

func (a *app) calendarStore(ctx context.Context) (*gcal.Store, error) {
	cal := a.cfg.Store.Calendar
	srv, err := gcal.NewService(ctx, cal.CredentialsFile, cal.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("google calendar: %w", err)
	}
	employees, err := a.data.Employees(ctx, store.EmployeeFilter{})
	if err != nil {
		return nil, err
	}
	a.logger.Info("reading meetings from google calendar", "calendar_id", cal.CalendarID)
	return gcal.New(srv, cal.CalendarID,
		gcal.WithDirectory(gcal.DirectoryFromEmployees(employees)),
		gcal.WithLogger(a.logger.WithComponent("gcal")),
	), nil
}

func (a *app) close() {
	_ = a.logger.Close()
}

// sink returns the console sink on out plus a log sink.
func (a *app) sink(out io.Writer) notify.Sink {
	return notify.MultiSink{
		notify.NewConsoleSink(out, a.cfg.Notify.Color),
		notify.NewLogSink(a.logger),
	}
}

func (a *app) monitor(out io.Writer) *monitor.Monitor {
	return monitor.New(a.data, a.sink(out),
		monitor.WithMeetingStore(a.meetings),
		monitor.WithBus(a.bus),
		monitor.WithLogger(a.logger),
		monitor.WithSettings(monitor.SettingsFromConfig(a.cfg.Monitor)),
	)
}

func (a *app) recommender() (*recommend.Service, error) {
	client, err := completion.NewFromConfig(a.cfg.Completion)
	if err != nil {
		return nil, err
	}
	return recommend.New(
		recommend.WithCompletion(client),
		recommend.WithStores(a.data, a.data),
		recommend.WithBus(a.bus),
		recommend.WithLogger(a.logger),
		recommend.WithTimeout(a.cfg.Completion.Timeout()),
		recommend.WithRetry(a.cfg.Completion.MaxRetries, a.cfg.Completion.InitialBackoff()),
	), nil
}

func (a *app) detector() *anomaly.Detector {
	return anomaly.NewDetector(a.data, a.data,
		anomaly.WithThresholds(thresholdsFromConfig(a.cfg.Anomaly)),
		anomaly.WithBus(a.bus),
		anomaly.WithLogger(a.logger),
	)
}

func thresholdsFromConfig(c config.AnomalyConfig) anomaly.Thresholds {
	return anomaly.Thresholds{
		OverdueDays:         c.OverdueDays,
		CriticalOverdueDays: c.CriticalOverdueDays,
		WorkloadRatio:       c.WorkloadRatio,
		PendingTaskLimit:    c.PendingTaskLimit,
	}
}

// createLogger builds the configured logger. Failure to open the log file
// falls back to stderr.
func createLogger(cfg *config.Config) *logging.Logger {
	opts := logging.Options{
		Path:   cfg.Logging.File,
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		},
	}
	logger, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		opts.Path = ""
		logger, _ = logging.New(opts)
	}
	return logger
}
