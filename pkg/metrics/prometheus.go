package metrics

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the status label of runs_total.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Manager holds the pipeline metrics registered on one registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	stageDuration    *prometheus.HistogramVec
	stageRows        *prometheus.GaugeVec
	stageColumns     *prometheus.GaugeVec
	stageErrors      *prometheus.CounterVec
	sentinelHits     *prometheus.CounterVec
	columnsAugmented prometheus.Counter
	rowsDropped      prometheus.Gauge
	runs             *prometheus.CounterVec
	lastRun          prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry it registers
// on a fresh registry of its own.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cohort",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		constLabels:      map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Wall time of each pipeline stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.stageRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_rows",
		Help:        "Rows in the frame produced by the last run of each stage",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.stageColumns = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_columns",
		Help:        "Columns in the frame produced by the last run of each stage",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.stageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_errors_total",
		Help:        "Stage failures",
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.sentinelHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sentinel_hits_total",
		Help:        "Raw fields read as missing, by input file name",
		ConstLabels: m.constLabels,
	}, []string{"file"})

	m.columnsAugmented = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "columns_augmented_total",
		Help:        "Variables joined from supplementary files",
		ConstLabels: m.constLabels,
	})

	m.rowsDropped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_dropped",
		Help:        "Rows removed by listwise deletion in the last run",
		ConstLabels: m.constLabels,
	})

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Pipeline runs by outcome",
		ConstLabels: m.constLabels,
	}, []string{"status"})

	m.lastRun = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last run finished",
		ConstLabels: m.constLabels,
	})
}

// ObserveStage records the duration and output shape of a successful stage.
func (m *Manager) ObserveStage(stage string, d time.Duration, rows, cols int) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.stageRows.WithLabelValues(stage).Set(float64(rows))
	m.stageColumns.WithLabelValues(stage).Set(float64(cols))
}

// RecordStageError counts a failed stage.
func (m *Manager) RecordStageError(stage string) {
	m.stageErrors.WithLabelValues(stage).Inc()
}

// RecordSentinelHits adds the missing-value count of one read. Only the file name is
// used as the label value.
func (m *Manager) RecordSentinelHits(path string, hits int) {
	m.sentinelHits.WithLabelValues(filepath.Base(path)).Add(float64(hits))
}

// RecordColumnAugmented counts one joined variable.
func (m *Manager) RecordColumnAugmented() {
	m.columnsAugmented.Inc()
}

// UpdateRowsDropped sets the listwise deletion count of the last run.
func (m *Manager) UpdateRowsDropped(n int) {
	m.rowsDropped.Set(float64(n))
}

// RecordRun counts a finished run and stamps its completion time.
func (m *Manager) RecordRun(status string, at time.Time) {
	m.runs.WithLabelValues(status).Inc()
	m.lastRun.Set(float64(at.Unix()))
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric of the manager's registry to path in the text
// exposition format, for the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}

// Default returns the global metrics manager.
func Default() *Manager {
	return globalManager
}

// WriteTextfile writes the global registry to path.
func WriteTextfile(path string) error {
	return globalManager.WriteTextfile(path)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
