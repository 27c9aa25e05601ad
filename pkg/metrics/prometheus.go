// Package metrics provides Prometheus metrics for the empath batch pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the pipeline's Prometheus metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Batch progress
	unitsProcessed prometheus.Counter
	unitFailures   prometheus.Counter
	logsProcessed  prometheus.Counter
	blocksEmitted  prometheus.Counter

	// Reconstruction fallbacks, for auditing
	neutralFallbacks      prometheus.Counter
	pictureLookupMisses   prometheus.Counter
	undefinedCorrelations prometheus.Counter
	duplicateResponses    prometheus.Counter

	// Operational health
	queueSize     prometheus.Gauge
	activeWorkers prometheus.Gauge
	unitLatency   prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "empath",
		subsystem:        "batch",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.unitsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "units_processed_total",
		Help:      "Subject units processed to completion.",
	})
	m.unitFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unit_failures_total",
		Help:      "Subject units that failed and were skipped.",
	})
	m.logsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "logs_processed_total",
		Help:      "Behavioral log files parsed and scored.",
	})
	m.blocksEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "blocks_emitted_total",
		Help:      "Stimulus blocks written to timing output.",
	})
	m.neutralFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "neutral_fallbacks_total",
		Help:      "Blocks reconstructed as the neutral fallback trace.",
	})
	m.pictureLookupMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "picture_lookup_misses_total",
		Help:      "Rating lookups that carried the last known value forward.",
	})
	m.undefinedCorrelations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "undefined_correlations_total",
		Help:      "Correlations coerced to zero from an undefined result.",
	})
	m.duplicateResponses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_responses_total",
		Help:      "Response events dropped by trial-index deduplication.",
	})
	m.queueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Units currently enqueued.",
	})
	m.activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_workers",
		Help:      "Workers currently processing a unit.",
	})
	m.unitLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unit_duration_seconds",
		Help:      "Wall time spent processing one subject unit.",
		Buckets:   m.histogramBuckets,
	})

	m.registry.MustRegister(
		m.unitsProcessed,
		m.unitFailures,
		m.logsProcessed,
		m.blocksEmitted,
		m.neutralFallbacks,
		m.pictureLookupMisses,
		m.undefinedCorrelations,
		m.duplicateResponses,
		m.queueSize,
		m.activeWorkers,
		m.unitLatency,
	)
}

// Handler exposes the custom registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level record helpers against the global manager.

func RecordUnitProcessed() {
	globalManager.unitsProcessed.Inc()
}

func RecordUnitFailure() {
	globalManager.unitFailures.Inc()
}

func RecordLogProcessed() {
	globalManager.logsProcessed.Inc()
}

func RecordBlockEmitted() {
	globalManager.blocksEmitted.Inc()
}

func RecordNeutralFallback() {
	globalManager.neutralFallbacks.Inc()
}

func RecordPictureLookupMiss() {
	globalManager.pictureLookupMisses.Inc()
}

func RecordUndefinedCorrelation() {
	globalManager.undefinedCorrelations.Inc()
}

func RecordDuplicateResponse() {
	globalManager.duplicateResponses.Inc()
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateActiveWorkers(count int) {
	globalManager.activeWorkers.Set(float64(count))
}

func RecordUnitDuration(seconds float64) {
	globalManager.unitLatency.Observe(seconds)
}
