// Package metrics provides Prometheus metrics for the frameproof review engine.
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

// Manager manages all Prometheus metrics for the review engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Review activity metrics
	threadsCreated   prometheus.Counter
	commentsAdded    prometheus.Counter
	threadsResolved  prometheus.Counter
	threadsReopened  prometheus.Counter
	shapesUpdated    prometheus.Counter
	degenerateMarks  prometheus.Counter
	shareTokens      prometheus.Counter
	roundsAdvanced   prometheus.Counter
	statusTransition *prometheus.CounterVec

	// Optimistic persistence metrics
	mutationRollbacks  prometheus.Counter
	persistenceLatency prometheus.Histogram
	persistenceErrors  *prometheus.CounterVec
	loadErrors         prometheus.Counter
	mutationQueueSize  prometheus.Gauge

	// Projection metrics
	reprojections      prometheus.Counter
	deferredGeometry   prometheus.Counter
	overlayResyncCount prometheus.Counter

	// State gauges
	openThreads     prometheus.Gauge
	resolvedThreads prometheus.Gauge
	loadedClips     prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error breakdown
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "frameproof",
		subsystem:        "review",
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
func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is naturally long
	auto := promauto.With(m.registry)

	m.threadsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "threads_created_total",
		Help:      "Total number of annotation threads created",
	})

	m.commentsAdded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "comments_added_total",
		Help:      "Total number of comments appended to threads",
	})

	m.threadsResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "threads_resolved_total",
		Help:      "Total number of open->resolved transitions",
	})

	m.threadsReopened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "threads_reopened_total",
		Help:      "Total number of resolved->open transitions",
	})

	m.shapesUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "thread_shape_updates_total",
		Help:      "Total number of thread shape-set replacements",
	})

	m.degenerateMarks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degenerate_annotations_total",
		Help:      "Total number of annotations saved with no shapes and no comment",
	})

	m.shareTokens = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "share_tokens_issued_total",
		Help:      "Total number of newly generated share tokens (idempotent hits excluded)",
	})

	m.roundsAdvanced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_rounds_advanced_total",
		Help:      "Total number of feedback round increments",
	})

	m.statusTransition = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "asset_status_transitions_total",
			Help:      "Total number of asset status changes by target status",
		},
		[]string{"status"},
	)

	m.mutationRollbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_rollbacks_total",
		Help:      "Total number of optimistic mutations rolled back after a failed remote write",
	})

	m.persistenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_latency_milliseconds",
		Help:      "Histogram of remote persistence call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.persistenceErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "persistence_errors_total",
			Help:      "Total number of persistence failures by kind (transport, validation, timeout)",
		},
		[]string{"kind"},
	)

	m.loadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "load_errors_total",
		Help:      "Total number of failed initial thread loads",
	})

	m.mutationQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_queue_size",
		Help:      "Current number of queued mutations awaiting serialized execution",
	})

	m.reprojections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reprojections_total",
		Help:      "Total number of shape re-projections onto a render surface",
	})

	m.deferredGeometry = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "deferred_geometry_total",
		Help:      "Total number of geometry operations deferred due to unmeasured dimensions",
	})

	m.overlayResyncCount = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overlay_resyncs_total",
		Help:      "Total number of overlay box recomputations after resize or fullscreen changes",
	})

	m.openThreads = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_threads",
		Help:      "Current number of open threads across loaded clips",
	})

	m.resolvedThreads = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolved_threads",
		Help:      "Current number of resolved threads across loaded clips",
	})

	m.loadedClips = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loaded_clips",
		Help:      "Current number of clips with a live annotation store",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors broken down by component and kind",
		},
		[]string{"component", "kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Garbage collection pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Review activity recorders.

func RecordThreadCreated()  { globalManager.threadsCreated.Inc() }
func RecordCommentAdded()   { globalManager.commentsAdded.Inc() }
func RecordThreadResolved() { globalManager.threadsResolved.Inc() }
func RecordThreadReopened() { globalManager.threadsReopened.Inc() }
func RecordShapesUpdated()  { globalManager.shapesUpdated.Inc() }

// RecordDegenerateAnnotation counts a saved annotation that carried neither
// shapes nor a comment.
func RecordDegenerateAnnotation() { globalManager.degenerateMarks.Inc() }

func RecordShareTokenIssued() { globalManager.shareTokens.Inc() }
func RecordRoundAdvanced()    { globalManager.roundsAdvanced.Inc() }

// RecordStatusTransition counts an asset status change.
func RecordStatusTransition(status string) {
	globalManager.statusTransition.WithLabelValues(status).Inc()
}

// Optimistic persistence recorders.

func RecordMutationRollback() { globalManager.mutationRollbacks.Inc() }

func RecordPersistenceLatency(ms float64) {
	globalManager.persistenceLatency.Observe(ms)
}

func RecordPersistenceError(kind string) {
	globalManager.persistenceErrors.WithLabelValues(kind).Inc()
}

func RecordLoadError() { globalManager.loadErrors.Inc() }

func UpdateMutationQueueSize(n int) {
	globalManager.mutationQueueSize.Set(float64(n))
}

// Projection recorders.

func RecordReprojection()     { globalManager.reprojections.Inc() }
func RecordDeferredGeometry() { globalManager.deferredGeometry.Inc() }
func RecordOverlayResync()    { globalManager.overlayResyncCount.Inc() }

// State gauges.

func UpdateOpenThreads(n int)     { globalManager.openThreads.Set(float64(n)) }
func UpdateResolvedThreads(n int) { globalManager.resolvedThreads.Set(float64(n)) }
func UpdateLoadedClips(n int)     { globalManager.loadedClips.Set(float64(n)) }

// HTTP recorders.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent tracks an error for a specific component.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// System recorders.

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}

func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}
