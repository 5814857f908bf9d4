// Package metrics provides Prometheus metrics for the audioquery daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Manager manages all Prometheus metrics for the daemon.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Query flow
	queriesReceived *prometheus.CounterVec
	queriesRejected *prometheus.CounterVec
	queryOutcomes   *prometheus.CounterVec
	queryLatency    prometheus.Histogram

	// Search
	searchRequests *prometheus.CounterVec
	searchLatency  prometheus.Histogram
	searchResults  prometheus.Histogram

	// Sound store and download
	cacheHits       prometheus.Counter
	downloads       *prometheus.CounterVec
	downloadBytes   prometheus.Counter
	downloadLatency prometheus.Histogram

	// Playback
	playbacks *prometheus.CounterVec

	// Listener and inbox
	drainCycles   prometheus.Counter
	inboxSize     prometheus.Gauge
	inboxCapacity prometheus.Gauge
	inboxRejects  *prometheus.CounterVec

	// HTTP admin surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:      "audioquery",
		subsystem:      "daemon",
		latencyBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.queriesReceived = m.counterVec("queries_received_total",
		"Total number of query messages received, by source (osc, ws)", "source")
	m.queriesRejected = m.counterVec("queries_rejected_total",
		"Total number of queries dropped before any network call, by reason", "reason")
	m.queryOutcomes = m.counterVec("query_outcomes_total",
		"Total number of completed query pipelines, by outcome", "outcome")
	m.queryLatency = m.histogram("query_latency_milliseconds",
		"End-to-end latency of one search/download/play pipeline", m.latencyBuckets)

	m.searchRequests = m.counterVec("search_requests_total",
		"Total number of remote search requests, by result", "result")
	m.searchLatency = m.histogram("search_latency_milliseconds",
		"Remote search request latency in milliseconds", m.latencyBuckets)
	m.searchResults = m.histogram("search_results",
		"Number of usable candidates returned by a search",
		[]float64{0, 1, 2, 5, 10, 15, 25, 50, 100})

	m.cacheHits = m.counter("cache_hits_total",
		"Total number of queries served from an already downloaded sound file")
	m.downloads = m.counterVec("downloads_total",
		"Total number of sound downloads, by result", "result")
	m.downloadBytes = m.counter("download_bytes_total",
		"Total number of bytes written to the sound directory")
	m.downloadLatency = m.histogram("download_latency_milliseconds",
		"Sound download latency in milliseconds", m.latencyBuckets)

	m.playbacks = m.counterVec("playbacks_total",
		"Total number of playback attempts, by result", "result")

	m.drainCycles = m.counter("listener_drain_cycles_total",
		"Total number of listener drain cycles")
	m.inboxSize = m.gauge("inbox_size", "Current number of queued websocket queries")
	m.inboxCapacity = m.gauge("inbox_capacity", "Maximum number of queued websocket queries")
	m.inboxRejects = m.counterVec("inbox_rejects_total",
		"Total number of websocket queries that could not be queued, by reason", "reason")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of admin HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "Admin HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total",
		"Total number of errors by component and type", "component", "error_type")
}

// RecordQueryReceived increments the received counter for a message source.
func RecordQueryReceived(source string) {
	globalManager.queriesReceived.WithLabelValues(source).Inc()
}

// RecordQueryRejected increments the rejected counter (encoding, empty, bad_args).
func RecordQueryRejected(reason string) {
	globalManager.queriesRejected.WithLabelValues(reason).Inc()
}

// RecordQueryOutcome increments the outcome counter.
func RecordQueryOutcome(outcome string) {
	globalManager.queryOutcomes.WithLabelValues(outcome).Inc()
}

// RecordQueryLatency records pipeline latency in milliseconds.
func RecordQueryLatency(latencyMs float64) {
	globalManager.queryLatency.Observe(latencyMs)
}

// RecordSearchRequest records one search request and its latency.
func RecordSearchRequest(result string, latencyMs float64) {
	globalManager.searchRequests.WithLabelValues(result).Inc()
	globalManager.searchLatency.Observe(latencyMs)
}

// RecordSearchResults records the number of usable candidates.
func RecordSearchResults(n int) {
	globalManager.searchResults.Observe(float64(n))
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordDownload records one download attempt.
func RecordDownload(result string, bytes int64, latencyMs float64) {
	globalManager.downloads.WithLabelValues(result).Inc()
	if bytes > 0 {
		globalManager.downloadBytes.Add(float64(bytes))
	}
	globalManager.downloadLatency.Observe(latencyMs)
}

// RecordPlayback records one playback attempt.
func RecordPlayback(result string) {
	globalManager.playbacks.WithLabelValues(result).Inc()
}

// RecordDrainCycle increments the drain cycle counter.
func RecordDrainCycle() {
	globalManager.drainCycles.Inc()
}

// UpdateInboxSize sets the current inbox length.
func UpdateInboxSize(size int) {
	globalManager.inboxSize.Set(float64(size))
}

// UpdateInboxCapacity sets the inbox capacity.
func UpdateInboxCapacity(capacity int) {
	globalManager.inboxCapacity.Set(float64(capacity))
}

// RecordInboxReject increments the inbox reject counter.
func RecordInboxReject(reason string) {
	globalManager.inboxRejects.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an admin HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
