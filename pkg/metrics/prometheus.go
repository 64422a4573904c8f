// Package metrics provides Prometheus metrics for the vigia scoring service.
package metrics

import (
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute kinds used as label values.
const (
	RecomputeFull        = "full"
	RecomputeIncremental = "incremental"
)

// DefaultCategoryLabelLimit bounds the category label of the unmapped actions
// counter; OverflowCategory collects every category past it.
const (
	DefaultCategoryLabelLimit = 100
	OverflowCategory          = "other"
)

// defaultHTTPBuckets are request duration buckets in milliseconds.
var defaultHTTPBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // read-only

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	categoryLimit int
	categoryMu    sync.Mutex
	categories    map[string]struct{}

	// Ledger
	actionsAppended  prometheus.Counter
	actionsDuplicate prometheus.Counter
	actionsRejected  *prometheus.CounterVec
	journalLatency   prometheus.Histogram

	// Scoring
	unmappedActions    *prometheus.CounterVec
	recomputeCount     *prometheus.CounterVec
	recomputeLatency   *prometheus.HistogramVec
	insufficientViews  prometheus.Gauge
	trackedPoliticians prometheus.Gauge
	priorityVersion    prometheus.Gauge
	priorityCount      prometheus.Gauge

	// Flow
	flowTransitions *prometheus.CounterVec
	flowSessions    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter
	workerLatency      prometheus.Histogram

	// Repository
	snapshotRebuild prometheus.Histogram
	snapshotCount   prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vigia",
		histogramBuckets: slices.Clone(defaultHTTPBuckets),
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
		categoryLimit:    DefaultCategoryLabelLimit,
		categories:       make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Configure replaces the global manager with one built from opts, registered
// on a fresh registry that GetRegistry returns from then on. It is meant to
// run once at startup, before handlers capture the registry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	m := NewManager(append(slices.Clone(opts), WithPrometheusRegistry(registry))...)
	customRegistry = registry
	globalManager = m
}

// categoryLabel admits up to categoryLimit distinct categories; later ones
// share OverflowCategory.
func (m *Manager) categoryLabel(category string) string {
	m.categoryMu.Lock()
	defer m.categoryMu.Unlock()
	if _, ok := m.categories[category]; ok {
		return category
	}
	if len(m.categories) >= m.categoryLimit {
		return OverflowCategory
	}
	m.categories[category] = struct{}{}
	return category
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)
	msBuckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000}

	m.actionsAppended = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("actions_appended_total"),
		Help: "Actions newly recorded in the ledger",
	})
	m.actionsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("actions_duplicate_total"),
		Help: "Identical re-appends ignored by the ledger",
	})
	m.actionsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("actions_rejected_total"),
		Help: "Actions rejected at the ledger boundary, by reason",
	}, []string{"reason"})
	m.journalLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name:    m.name("journal_write_latency_milliseconds"),
		Help:    "Latency of journal writes in milliseconds",
		Buckets: msBuckets,
	})

	m.unmappedActions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("unmapped_actions_total"),
		Help: "Actions whose category resolved to no active priority",
	}, []string{"category"})
	m.recomputeCount = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("recompute_total"),
		Help: "Politician score recomputations, by kind",
	}, []string{"kind"})
	m.recomputeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name:    m.name("recompute_latency_milliseconds"),
		Help:    "Latency of score recomputation in milliseconds, by kind",
		Buckets: msBuckets,
	}, []string{"kind"})
	m.insufficientViews = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("insufficient_data_politicians"),
		Help: "Tracked politicians whose score is currently undefined",
	})
	m.trackedPoliticians = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("tracked_politicians"),
		Help: "Politicians with a computed view",
	})
	m.priorityVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("priority_set_version"),
		Help: "Version of the active priority set",
	})
	m.priorityCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "scoring", ConstLabels: labels,
		Name: m.name("priorities"),
		Help: "Number of priorities in the active set",
	})

	m.flowTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "flow", ConstLabels: labels,
		Name: m.name("transitions_total"),
		Help: "Onboarding flow events, by event and outcome",
	}, []string{"event", "outcome"})
	m.flowSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "flow", ConstLabels: labels,
		Name: m.name("sessions"),
		Help: "Open onboarding sessions",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: labels,
		Name: m.name("requests_total"),
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: labels,
		Name:    m.name("request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "ingest", ConstLabels: labels,
		Name: m.name("queue_size"),
		Help: "Actions waiting in the ingestion queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "ingest", ConstLabels: labels,
		Name: m.name("queue_capacity"),
		Help: "Capacity of the ingestion queue",
	})
	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ingest", ConstLabels: labels,
		Name: m.name("enqueue_errors_total"),
		Help: "Rejected enqueue attempts, by reason",
	}, []string{"reason"})
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "ingest", ConstLabels: labels,
		Name: m.name("workers"),
		Help: "Running ingestion workers",
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "ingest", ConstLabels: labels,
		Name: m.name("worker_errors_total"),
		Help: "Actions a worker failed to apply",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "ingest", ConstLabels: labels,
		Name:    m.name("worker_latency_milliseconds"),
		Help:    "Time a worker spends applying one action",
		Buckets: msBuckets,
	})

	m.snapshotRebuild = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "repository", ConstLabels: labels,
		Name:    m.name("snapshot_rebuild_milliseconds"),
		Help:    "Time spent rebuilding the ranking snapshot",
		Buckets: msBuckets,
	})
	m.snapshotCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "repository", ConstLabels: labels,
		Name: m.name("snapshots_total"),
		Help: "Ranking snapshots published",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, ConstLabels: labels,
		Name: m.name("errors_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name: m.name("memory_bytes"),
		Help: "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: labels,
		Name: m.name("goroutines"),
		Help: "Number of goroutines",
	})
}

// RecordActionAppended increments the appended actions counter.
func RecordActionAppended() {
	if globalManager.enabled {
		globalManager.actionsAppended.Inc()
	}
}

// RecordActionDuplicate increments the idempotent re-append counter.
func RecordActionDuplicate() {
	if globalManager.enabled {
		globalManager.actionsDuplicate.Inc()
	}
}

// RecordActionRejected counts a rejected action by reason.
func RecordActionRejected(reason string) {
	if globalManager.enabled {
		globalManager.actionsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordJournalLatency records a journal write latency in milliseconds.
func RecordJournalLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.journalLatency.Observe(latencyMs)
	}
}

// RecordUnmappedActions adds n unmapped actions for category. Past the
// category label limit they are counted under OverflowCategory.
func RecordUnmappedActions(category string, n int) {
	if globalManager.enabled && n > 0 {
		globalManager.unmappedActions.WithLabelValues(globalManager.categoryLabel(category)).Add(float64(n))
	}
}

// RecordRecompute records one recomputation of the given kind.
func RecordRecompute(kind string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.recomputeCount.WithLabelValues(kind).Inc()
		globalManager.recomputeLatency.WithLabelValues(kind).Observe(latencyMs)
	}
}

// UpdateInsufficientData sets the number of politicians with an undefined score.
func UpdateInsufficientData(count int) {
	globalManager.insufficientViews.Set(float64(count))
}

// UpdateTrackedPoliticians sets the number of politicians with a computed view.
func UpdateTrackedPoliticians(count int) {
	globalManager.trackedPoliticians.Set(float64(count))
}

// UpdatePrioritySet records the active priority set version and size.
func UpdatePrioritySet(version uint64, count int) {
	globalManager.priorityVersion.Set(float64(version))
	globalManager.priorityCount.Set(float64(count))
}

// RecordFlowTransition counts an onboarding event and its outcome.
func RecordFlowTransition(event, outcome string) {
	if globalManager.enabled {
		globalManager.flowTransitions.WithLabelValues(event, outcome).Inc()
	}
}

// UpdateFlowSessions sets the number of open onboarding sessions.
func UpdateFlowSessions(count int) {
	globalManager.flowSessions.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordEnqueueError counts a rejected enqueue.
func RecordEnqueueError(reason string) {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// RecordWorkerLatency records how long a worker took to apply one action.
func RecordWorkerLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordSnapshotRebuild records one published ranking snapshot.
func RecordSnapshotRebuild(latencyMs float64) {
	if globalManager.enabled {
		globalManager.snapshotRebuild.Observe(latencyMs)
		globalManager.snapshotCount.Inc()
	}
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
