// Package metrics provides Prometheus metrics for the pitchtrack relay.
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

// Manager manages all Prometheus metrics for the relay.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Cache Metrics
	cacheRequests  *prometheus.CounterVec
	cacheLoads     *prometheus.CounterVec
	cacheCoalesced *prometheus.CounterVec
	cacheEntries   prometheus.Gauge

	// Upstream Metrics - Stats API and Savant
	upstreamRequests      *prometheus.CounterVec
	upstreamDuration      *prometheus.HistogramVec
	upstreamThrottleWait  *prometheus.HistogramVec
	breakerState          *prometheus.GaugeVec
	breakerTransitions    *prometheus.CounterVec
	statcastEmptyResponse *prometheus.CounterVec

	// Domain Metrics
	movementDerivations *prometheus.CounterVec
	pitchesNormalized   *prometheus.CounterVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "pitchtrack",
		subsystem:        "relay",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the configured metric prefix.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.cacheRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_requests_total"),
			Help:        "Cache lookups by endpoint and result (hit, miss)",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "result"},
	)

	m.cacheLoads = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_loads_total"),
			Help:        "Upstream loads triggered by cache misses, by endpoint and outcome",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "outcome"},
	)

	m.cacheCoalesced = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("cache_coalesced_total"),
			Help:        "Cache misses served by a load already in flight for the same key",
			ConstLabels: constLabels,
		},
		[]string{"endpoint"},
	)

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cache_entries"),
		Help:        "Number of keys held by the response cache, stale entries included",
		ConstLabels: constLabels,
	})

	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("upstream_requests_total"),
			Help:        "Upstream HTTP requests by source and outcome",
			ConstLabels: constLabels,
		},
		[]string{"source", "outcome"},
	)

	m.upstreamDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("upstream_request_duration_milliseconds"),
			Help:        "Upstream HTTP request latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"source"},
	)

	m.upstreamThrottleWait = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("upstream_throttle_wait_milliseconds"),
			Help:        "Time spent waiting on the outbound rate limiter",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"source"},
	)

	m.breakerState = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("circuit_breaker_state"),
			Help:        "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
			ConstLabels: constLabels,
		},
		[]string{"source"},
	)

	m.breakerTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("circuit_breaker_transitions_total"),
			Help:        "Circuit breaker state transitions per upstream",
			ConstLabels: constLabels,
		},
		[]string{"source", "from", "to"},
	)

	m.statcastEmptyResponse = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("statcast_empty_responses_total"),
			Help:        "Savant responses treated as empty, by reason (status, marker)",
			ConstLabels: constLabels,
		},
		[]string{"reason"},
	)

	m.movementDerivations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("movement_derivations_total"),
			Help:        "Pitch movement derivations by outcome",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	m.pitchesNormalized = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("pitches_normalized_total"),
			Help:        "Pitch records produced by the normalizer, by movement source",
			ConstLabels: constLabels,
		},
		[]string{"source"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Errors by type and severity",
			ConstLabels: constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Errors by endpoint, method and type",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that ended in an error",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Cache Metrics Functions.

// RecordCacheHit counts a fresh cache lookup for endpoint.
func RecordCacheHit(endpoint string) {
	globalManager.cacheRequests.WithLabelValues(endpoint, "hit").Inc()
}

// RecordCacheMiss counts an absent or stale cache lookup for endpoint.
func RecordCacheMiss(endpoint string) {
	globalManager.cacheRequests.WithLabelValues(endpoint, "miss").Inc()
}

// RecordCacheLoad counts an upstream load and its outcome ("ok", "error").
func RecordCacheLoad(endpoint, outcome string) {
	globalManager.cacheLoads.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCacheCoalesced counts a miss that joined a load already in flight.
func RecordCacheCoalesced(endpoint string) {
	globalManager.cacheCoalesced.WithLabelValues(endpoint).Inc()
}

// UpdateCacheEntries sets the number of cached keys.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// Upstream Metrics Functions.

// RecordUpstreamRequest records one upstream call: outcome is "success",
// "failure" or "rejected" (breaker open).
func RecordUpstreamRequest(source, outcome string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(source, outcome).Inc()
	if outcome != "rejected" {
		globalManager.upstreamDuration.WithLabelValues(source).Observe(latencyMs)
	}
}

// RecordUpstreamThrottleWait records time spent waiting for an outbound token.
func RecordUpstreamThrottleWait(source string, waitMs float64) {
	globalManager.upstreamThrottleWait.WithLabelValues(source).Observe(waitMs)
}

// UpdateCircuitBreakerState sets the breaker state gauge for source.
func UpdateCircuitBreakerState(source string, state float64) {
	globalManager.breakerState.WithLabelValues(source).Set(state)
}

// RecordCircuitBreakerTransition counts a breaker state change.
func RecordCircuitBreakerTransition(source, from, to string) {
	globalManager.breakerTransitions.WithLabelValues(source, from, to).Inc()
}

// RecordStatcastEmptyResponse counts a Savant response discarded as empty.
func RecordStatcastEmptyResponse(reason string) {
	globalManager.statcastEmptyResponse.WithLabelValues(reason).Inc()
}

// Domain Metrics Functions.

// RecordMovementDerivation counts a movement derivation by outcome.
func RecordMovementDerivation(outcome string) {
	globalManager.movementDerivations.WithLabelValues(outcome).Inc()
}

// RecordPitchesNormalized adds n records for the given movement source.
func RecordPitchesNormalized(source string, n int) {
	globalManager.pitchesNormalized.WithLabelValues(source).Add(float64(n))
}

// Error Metrics Functions.

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns how often background gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
