// Package metrics exposes Prometheus metrics for the monitor, the anomaly
// detector and the recommendation service. Metrics are fed from the event
// bus, so the instrumented packages never import Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Iron-Ham/taskwatch/internal/event"
)

const namespace = "taskwatch"

// Collector owns a registry and the metrics registered in it.
type Collector struct {
	Registry *prometheus.Registry

	// =========================================================================
	// Monitor
	// =========================================================================

	// TicksTotal counts completed monitor ticks.
	TicksTotal prometheus.Counter
	// TicksSkippedTotal counts ticks suppressed by the single-flight guard.
	TicksSkippedTotal prometheus.Counter
	// TickDurationSeconds tracks how long a tick takes.
	TickDurationSeconds prometheus.Histogram
	// NotificationsTotal counts notifications by kind.
	NotificationsTotal *prometheus.CounterVec
	// DeliveryFailuresTotal counts notifications a sink rejected.
	DeliveryFailuresTotal prometheus.Counter
	// FetchFailuresTotal counts failed store fetches by store.
	FetchFailuresTotal *prometheus.CounterVec
	// MonitorRunning is 1 while the monitor is running.
	MonitorRunning prometheus.Gauge

	// =========================================================================
	// Analysis
	// =========================================================================

	// AnomaliesTotal counts detected anomalies by type and severity.
	AnomaliesTotal *prometheus.CounterVec
	// RecommendationsTotal counts recommendations by rationale source.
	RecommendationsTotal *prometheus.CounterVec
	// RecommendationDurationSeconds tracks end-to-end recommendation latency.
	RecommendationDurationSeconds prometheus.Histogram
	// AssignmentsTotal counts written task assignments.
	AssignmentsTotal prometheus.Counter

	subIDs []string
	bus    *event.Bus
}

// New creates a Collector with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		Registry: reg,

		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "Total number of completed monitor ticks",
		}),
		TicksSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because the previous tick was still running",
		}),
		TickDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "tick_duration_seconds",
			Help:      "Time taken to run one monitor tick",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "notifications_total",
			Help:      "Notifications emitted by kind",
		}, []string{"kind"}),
		DeliveryFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "delivery_failures_total",
			Help:      "Notifications the sink failed to deliver",
		}),
		FetchFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "fetch_failures_total",
			Help:      "Failed store fetches during ticks by store",
		}, []string{"store"}),
		MonitorRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "running",
			Help:      "1 while the deadline monitor is running",
		}),

		AnomaliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anomaly",
			Name:      "detected_total",
			Help:      "Anomalies detected by type and severity",
		}, []string{"type", "severity"}),
		RecommendationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "recommendations_total",
			Help:      "Recommendations produced by rationale source",
		}, []string{"rationale"}),
		RecommendationDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "duration_seconds",
			Help:      "Time taken to produce a recommendation including the rationale",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AssignmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "assignments_total",
			Help:      "Task assignments written to the store",
		}),
	}
}

// Subscribe feeds the collector from bus. Call Unsubscribe to detach.
func (c *Collector) Subscribe(bus *event.Bus) {
	c.bus = bus
	c.subIDs = append(c.subIDs, bus.SubscribeAll(c.observe))
}

// Unsubscribe detaches the collector from its bus.
func (c *Collector) Unsubscribe() {
	if c.bus == nil {
		return
	}
	for _, id := range c.subIDs {
		c.bus.Unsubscribe(id)
	}
	c.subIDs = nil
}

func (c *Collector) observe(e event.Event) {
	switch ev := e.(type) {
	case event.NotificationEvent:
		c.NotificationsTotal.WithLabelValues(ev.Kind()).Inc()
	case event.TickEvent:
		c.TicksTotal.Inc()
		c.TickDurationSeconds.Observe(ev.Duration.Seconds())
		c.DeliveryFailuresTotal.Add(float64(ev.DeliveryFailures))
		if ev.TaskFetchFailed {
			c.FetchFailuresTotal.WithLabelValues("tasks").Inc()
		}
		if ev.MeetingFetchFailed {
			c.FetchFailuresTotal.WithLabelValues("meetings").Inc()
		}
	case event.TickSkippedEvent:
		c.TicksSkippedTotal.Inc()
	case event.MonitorStateEvent:
		if ev.EventType() == event.TypeMonitorStarted {
			c.MonitorRunning.Set(1)
		} else {
			c.MonitorRunning.Set(0)
		}
	case event.AnomalyDetectedEvent:
		c.AnomaliesTotal.WithLabelValues(ev.Anomaly.Type.String(), ev.Anomaly.Severity.String()).Inc()
	case event.RecommendationEvent:
		source := "completion"
		if ev.Fallback {
			source = "fallback"
		}
		c.RecommendationsTotal.WithLabelValues(source).Inc()
		c.RecommendationDurationSeconds.Observe(ev.Duration.Seconds())
	case event.TaskAssignedEvent:
		c.AssignmentsTotal.Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{Registry: c.Registry})
}
