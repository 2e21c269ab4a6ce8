// Package metrics exposes ibuddy's Prometheus instruments.
//
// Each process owns its own registry. Counters describe what happened during
// this process; gauges are set from persisted state with Observe before the
// registry is written out. Methods are safe on a nil *Metrics so services can
// run without instrumentation.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "ibuddy"

// Metrics holds the registered instruments.
type Metrics struct {
	Registry *prometheus.Registry

	SessionsEndedTotal     *prometheus.CounterVec
	ArenaTasksTotal        *prometheus.CounterVec
	TaskMutationsTotal     *prometheus.CounterVec
	CoinsAwardedTotal      prometheus.Counter
	NotificationsTotal     *prometheus.CounterVec
	PersistenceErrorsTotal *prometheus.CounterVec
	SessionFocusScore      prometheus.Histogram
	TasksGauge             *prometheus.GaugeVec
	ProgressGauge          *prometheus.GaugeVec
	SessionHistoryGauge    prometheus.Gauge
	ActiveSessionGauge     prometheus.Gauge
}

// Snapshot is the persisted state mirrored into gauges.
type Snapshot struct {
	TasksTotal     int
	TasksCompleted int
	Coins          int
	XP             int
	Level          int
	Streak         int
	StressLevel    int
	SessionHistory int
	SessionActive  bool
}

// New creates and registers every instrument on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		SessionsEndedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "arena",
				Name:      "sessions_ended_total",
				Help:      "Focus sessions ended, by final status",
			},
			[]string{"status"},
		),
		ArenaTasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "arena",
				Name:      "tasks_total",
				Help:      "Arena tasks resolved, by outcome",
			},
			[]string{"outcome"},
		),
		TaskMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "mutations_total",
				Help:      "Task store mutations, by operation",
			},
			[]string{"op"},
		),
		CoinsAwardedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "coins_awarded_total",
				Help:      "Coins awarded for finished sessions",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notify",
				Name:      "notifications_total",
				Help:      "Notifications enqueued, by type",
			},
			[]string{"type"},
		),
		PersistenceErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "persistence_errors_total",
				Help:      "Failed loads and saves, by namespace",
			},
			[]string{"namespace"},
		),
		SessionFocusScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "arena",
				Name:      "session_focus_score",
				Help:      "Focus score of ended sessions",
				Buckets:   []float64{20, 40, 60, 80, 100},
			},
		),
		TasksGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "tasks",
				Name:      "count",
				Help:      "Stored tasks, by state",
			},
			[]string{"state"},
		),
		ProgressGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "value",
				Help:      "Progression ledger values, by stat",
			},
			[]string{"stat"},
		),
		SessionHistoryGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "arena",
				Name:      "session_history",
				Help:      "Ended sessions kept in history",
			},
		),
		ActiveSessionGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "arena",
				Name:      "session_active",
				Help:      "1 while a focus session is live",
			},
		),
	}
	reg.MustRegister(
		m.SessionsEndedTotal,
		m.ArenaTasksTotal,
		m.TaskMutationsTotal,
		m.CoinsAwardedTotal,
		m.NotificationsTotal,
		m.PersistenceErrorsTotal,
		m.SessionFocusScore,
		m.TasksGauge,
		m.ProgressGauge,
		m.SessionHistoryGauge,
		m.ActiveSessionGauge,
	)
	return m
}

// SessionEnded records an ended session.
func (m *Metrics) SessionEnded(status string, focusScore int) {
	if m == nil {
		return
	}
	m.SessionsEndedTotal.WithLabelValues(status).Inc()
	m.SessionFocusScore.Observe(float64(focusScore))
}

// ArenaTask records a completed or skipped arena task.
func (m *Metrics) ArenaTask(outcome string) {
	if m == nil {
		return
	}
	m.ArenaTasksTotal.WithLabelValues(outcome).Inc()
}

// TaskMutation records a task store operation.
func (m *Metrics) TaskMutation(op string) {
	if m == nil {
		return
	}
	m.TaskMutationsTotal.WithLabelValues(op).Inc()
}

// CoinsAwarded records a session coin award.
func (m *Metrics) CoinsAwarded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CoinsAwardedTotal.Add(float64(n))
}

// Notification records an enqueued notification.
func (m *Metrics) Notification(kind string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind).Inc()
}

// PersistenceError records a failed load or save.
func (m *Metrics) PersistenceError(namespace string) {
	if m == nil {
		return
	}
	m.PersistenceErrorsTotal.WithLabelValues(namespace).Inc()
}

// Observe sets the gauges from s.
func (m *Metrics) Observe(s Snapshot) {
	if m == nil {
		return
	}
	m.TasksGauge.WithLabelValues("total").Set(float64(s.TasksTotal))
	m.TasksGauge.WithLabelValues("completed").Set(float64(s.TasksCompleted))
	m.TasksGauge.WithLabelValues("pending").Set(float64(s.TasksTotal - s.TasksCompleted))
	m.ProgressGauge.WithLabelValues("coins").Set(float64(s.Coins))
	m.ProgressGauge.WithLabelValues("xp").Set(float64(s.XP))
	m.ProgressGauge.WithLabelValues("level").Set(float64(s.Level))
	m.ProgressGauge.WithLabelValues("streak").Set(float64(s.Streak))
	m.ProgressGauge.WithLabelValues("stress_level").Set(float64(s.StressLevel))
	m.SessionHistoryGauge.Set(float64(s.SessionHistory))
	if s.SessionActive {
		m.ActiveSessionGauge.Set(1)
	} else {
		m.ActiveSessionGauge.Set(0)
	}
}

// WriteText writes the registry in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("write metric family %s: %w", family.GetName(), err)
		}
	}
	return nil
}
