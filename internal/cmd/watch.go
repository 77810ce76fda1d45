package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/taskwatch/internal/config"
	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/metrics"
	"github.com/Iron-Ham/taskwatch/internal/monitor"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor deadlines and meetings until interrupted",
		Long: `Watch runs the deadline monitor in the foreground. Each tick scans tasks due
within the scan window and meetings starting within the reminder window and
prints one line per new notification.

Monitor thresholds are reloaded when the config file changes. When
metrics.address is set, Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().Bool("no-initial-scan", false, "wait one interval before the first tick")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	collector := metrics.New()
	collector.Subscribe(a.bus)
	defer collector.Unsubscribe()

	if addr := a.cfg.Metrics.Address; addr != "" {
		shutdown := serveMetrics(addr, collector, a)
		defer shutdown()
	}

	mon := a.monitor(cmd.OutOrStdout())

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			cfg, err := config.Load()
			if err != nil {
				a.logger.Warn("config reload rejected", "file", e.Name, "error", err.Error())
				return
			}
			mon.UpdateSettings(monitor.SettingsFromConfig(cfg.Monitor))
			a.logger.SetLevel(cfg.Logging.Level)
		})
		viper.WatchConfig()
	}

	if anomalies, err := a.detector().Scan(ctx); err == nil && len(anomalies) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d anomalies detected; run 'taskwatch anomalies' for details\n", len(anomalies))
	}

	if skip, _ := cmd.Flags().GetBool("no-initial-scan"); !skip {
		mon.Tick(ctx)
	}
	mon.Start(ctx)

	<-ctx.Done()
	mon.Stop()
	return nil
}

// serveMetrics starts the metrics listener and returns its shutdown func.
func serveMetrics(addr string, c *metrics.Collector, a *app) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("serving metrics", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err.Error())
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
