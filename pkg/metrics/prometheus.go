// Package metrics provides Prometheus metrics for the timefold pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Temporal splitting
	splitsGenerated   prometheus.Counter
	matricesDiscarded prometheus.Counter

	// Matrix materialization
	matricesBuilt       prometheus.Counter
	matrixBuildFailures prometheus.Counter
	aggregationLatency  prometheus.Histogram
	featureRowsComputed prometheus.Counter

	// Cache behavior
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Task queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	tasksEnqueued    prometheus.Counter
	tasksDropped     prometheus.Counter

	// Worker pool
	workerCount       prometheus.Gauge
	taskLatency       prometheus.Histogram
	taskFailures      *prometheus.CounterVec
	sourceRetries     prometheus.Counter
	scoringErrors     prometheus.Counter
	modelSpecsEmitted prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "timefold",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
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
	auto := promauto.With(m.registry)

	m.splitsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "splits_generated_total",
		Help:      "Total number of temporal splits generated",
	})

	m.matricesDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matrices_discarded_total",
		Help:      "Matrix definitions discarded by beginning-of-time truncation",
	})

	m.matricesBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matrices_built_total",
		Help:      "Total number of matrices materialized",
	})

	m.matrixBuildFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matrix_build_failures_total",
		Help:      "Total number of matrix builds that failed",
	})

	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_latency_milliseconds",
		Help:      "Histogram of spacetime aggregation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.featureRowsComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_rows_computed_total",
		Help:      "Total number of feature rows computed",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Feature table cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Feature table cache misses",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the matrix-build task queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the task queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Task queue utilization (size / capacity)",
	})

	m.tasksEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_enqueued_total",
		Help:      "Total number of matrix-build tasks enqueued",
	})

	m.tasksDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_dropped_total",
		Help:      "Tasks rejected because the queue was full or closed",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of active build workers",
	})

	m.taskLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "task_latency_milliseconds",
		Help:      "End-to-end matrix build task latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.taskFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "task_failures_total",
			Help:      "Task failures by unit of work",
		},
		[]string{"kind"},
	)

	m.sourceRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_retries_total",
		Help:      "Transient data source errors that were retried",
	})

	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total number of model scoring errors",
	})

	m.modelSpecsEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_specs_emitted_total",
		Help:      "Model specifications produced by grid expansion",
	})
}

// Package-level helpers operating on the global manager.

// RecordSplitGenerated increments the split counter.
func RecordSplitGenerated() { globalManager.splitsGenerated.Inc() }

// RecordMatrixDiscarded increments the truncation counter.
func RecordMatrixDiscarded() { globalManager.matricesDiscarded.Inc() }

// RecordMatrixBuilt increments the built-matrix counter.
func RecordMatrixBuilt() { globalManager.matricesBuilt.Inc() }

// RecordMatrixBuildFailure increments the failed-build counter.
func RecordMatrixBuildFailure() { globalManager.matrixBuildFailures.Inc() }

// RecordAggregationLatency observes one aggregation duration in milliseconds.
func RecordAggregationLatency(ms float64) { globalManager.aggregationLatency.Observe(ms) }

// RecordFeatureRows adds to the feature-row counter.
func RecordFeatureRows(n int) { globalManager.featureRowsComputed.Add(float64(n)) }

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(n int) { globalManager.queueSize.Set(float64(n)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordTaskEnqueued increments the enqueued-task counter.
func RecordTaskEnqueued() { globalManager.tasksEnqueued.Inc() }

// RecordTaskDropped increments the dropped-task counter.
func RecordTaskDropped() { globalManager.tasksDropped.Inc() }

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordTaskLatency observes one task duration in milliseconds.
func RecordTaskLatency(ms float64) { globalManager.taskLatency.Observe(ms) }

// RecordTaskFailure increments the failure counter for a unit of work.
func RecordTaskFailure(kind string) { globalManager.taskFailures.WithLabelValues(kind).Inc() }

// RecordSourceRetry increments the retried-query counter.
func RecordSourceRetry() { globalManager.sourceRetries.Inc() }

// RecordScoringError increments the scoring error counter.
func RecordScoringError() { globalManager.scoringErrors.Inc() }

// RecordModelSpecs adds to the emitted model-spec counter.
func RecordModelSpecs(n int) { globalManager.modelSpecsEmitted.Add(float64(n)) }

// Registry returns the registry backing the global manager, for exposition.
func Registry() *prometheus.Registry { return customRegistry }
