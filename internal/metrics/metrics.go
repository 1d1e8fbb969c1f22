// Package metrics provides Prometheus metrics for merge runs. A CLI run is
// short-lived, so metrics are exported as a node-exporter textfile rather
// than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/provenance"
)

// Stage labels for row counts.
const (
	StageBaseLoaded      = "base_loaded"
	StageBaseFiltered    = "base_filtered"
	StageOverlayLoaded   = "overlay_loaded"
	StageOverlayFiltered = "overlay_filtered"
	StageMatched         = "matched"
	StageOutput          = "output"
)

// Manager owns the run metrics and the registry they live in.
type Manager struct {
	namespace string
	subsystem string
	labels    prometheus.Labels
	registry  *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastSuccess   prometheus.Gauge
	rows          *prometheus.GaugeVec
	fetchDuration *prometheus.HistogramVec
	fieldSources  *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		m.subsystem = subsystem
	}
}

// WithConstLabels adds constant labels to all metrics.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			m.labels[k] = v
		}
	}
}

// WithRegistry registers metrics in registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a metrics manager. Each manager gets its own
// registry unless one is supplied, so the default Go collectors are not
// exported.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "eventmerge",
		labels:    prometheus.Labels{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	factory := promauto.With(m.registry)

	m.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Merge runs by result.",
		ConstLabels: m.labels,
	}, []string{"result"})

	m.runDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of a merge run.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.labels,
	})

	m.lastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_timestamp_seconds",
		Help:        "Unix time of the last successful run.",
		ConstLabels: m.labels,
	})

	m.rows = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows",
		Help:        "Row count after each pipeline stage.",
		ConstLabels: m.labels,
	}, []string{"stage"})

	m.fetchDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "source_load_duration_seconds",
		Help:        "Time to load each source.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.labels,
	}, []string{"source"})

	m.fieldSources = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "field_values_total",
		Help:        "Reconciled field values by winning source.",
		ConstLabels: m.labels,
	}, []string{"field", "source"})

	return m
}

// Registry returns the registry the metrics are registered in.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRows records the row count after a stage.
func (m *Manager) ObserveRows(stage string, n int) {
	m.rows.WithLabelValues(stage).Set(float64(n))
}

// ObserveLoad records how long a source took to load.
func (m *Manager) ObserveLoad(source string, d time.Duration) {
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveFields adds reconciled value counts.
func (m *Manager) ObserveFields(summary provenance.Summary) {
	for field, bySource := range summary {
		for src, n := range bySource {
			m.fieldSources.WithLabelValues(field, src).Add(float64(n))
		}
	}
}

// RecordRun records the outcome of a run.
func (m *Manager) RecordRun(err error, d time.Duration, finished time.Time) {
	m.runDuration.Observe(d.Seconds())
	if err != nil {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.lastSuccess.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric in the text exposition format. The
// file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
