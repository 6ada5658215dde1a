// Package metrics provides Prometheus metrics for the pizarra board service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Board persistence
	boardLoads       *prometheus.CounterVec
	boardSaves       *prometheus.CounterVec
	boardLoadLatency prometheus.Histogram
	boardSaveLatency prometheus.Histogram
	staleCompletions prometheus.Counter

	// Layout and drag
	layoutArrangements *prometheus.CounterVec
	dragGestures       *prometheus.CounterVec
	dragMoves          prometheus.Counter

	// Selection
	selectionRejections prometheus.Counter

	// Roster directory
	directorySize          prometheus.Gauge
	placeholderResolutions prometheus.Counter
	directoryBatchLoads    *prometheus.CounterVec

	// Change feed
	changeNotifications *prometheus.CounterVec
	changeDropped       prometheus.Counter
	feedSubscribers     prometheus.Gauge
	remoteReloads       *prometheus.CounterVec

	// Sessions
	activeSessions prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
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
		namespace:        "pizarra",
		subsystem:        "board",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.boardLoads = m.counterVec("loads_total", "Board loads by result (found, absent, error)", "result")
	m.boardSaves = m.counterVec("saves_total", "Board saves by result (inserted, updated, error)", "result")
	m.boardLoadLatency = m.histogram("load_latency_milliseconds", "Board load latency in milliseconds")
	m.boardSaveLatency = m.histogram("save_latency_milliseconds", "Board save latency in milliseconds")
	m.staleCompletions = m.counter("stale_completions_total", "Load or save completions discarded because the active event changed")

	m.layoutArrangements = m.counterVec("layout_arrangements_total", "Layout engine runs by outcome", "outcome")
	m.dragGestures = m.counterVec("drag_gestures_total", "Drag gestures started by input kind", "input")
	m.dragMoves = m.counter("drag_moves_total", "Drag move updates written to a layout")

	m.selectionRejections = m.counter("selection_capacity_rejections_total", "Selections rejected because the board was full")

	m.directorySize = m.gauge("directory_profiles", "Profiles held by the roster directory")
	m.placeholderResolutions = m.counter("directory_placeholders_total", "Identities a directory batch fetch could not name")
	m.directoryBatchLoads = m.counterVec("directory_batch_loads_total", "Directory batch fetches by result", "result")

	m.changeNotifications = m.counterVec("change_notifications_total", "Change notifications published by type", "type")
	m.changeDropped = m.counter("change_notifications_dropped_total", "Change notifications dropped for slow subscribers")
	m.feedSubscribers = m.gauge("feed_subscribers", "Open change feed subscriptions")
	m.remoteReloads = m.counterVec("remote_reloads_total", "Reloads triggered by change notifications by result", "result")

	m.activeSessions = m.gauge("active_sessions", "Open board sessions")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordBoardLoad counts a board load with its result and latency.
func RecordBoardLoad(result string, latencyMs float64) {
	globalManager.boardLoads.WithLabelValues(result).Inc()
	globalManager.boardLoadLatency.Observe(latencyMs)
}

// RecordBoardSave counts a board save with its result and latency.
func RecordBoardSave(result string, latencyMs float64) {
	globalManager.boardSaves.WithLabelValues(result).Inc()
	globalManager.boardSaveLatency.Observe(latencyMs)
}

// RecordStaleCompletion counts a discarded load/save completion.
func RecordStaleCompletion() {
	globalManager.staleCompletions.Inc()
}

// RecordLayoutArrangement counts a layout engine run.
func RecordLayoutArrangement(outcome string) {
	globalManager.layoutArrangements.WithLabelValues(outcome).Inc()
}

// RecordDragGesture counts a started drag gesture.
func RecordDragGesture(input string) {
	globalManager.dragGestures.WithLabelValues(input).Inc()
}

// RecordDragMove counts a drag move written to a layout.
func RecordDragMove() {
	globalManager.dragMoves.Inc()
}

// RecordSelectionRejected counts a toggle refused by the capacity check.
func RecordSelectionRejected() {
	globalManager.selectionRejections.Inc()
}

// UpdateDirectorySize sets the number of profiles in the roster directory.
func UpdateDirectorySize(count int) {
	globalManager.directorySize.Set(float64(count))
}

// RecordPlaceholderResolutions counts identities a batch fetch left to
// placeholders.
func RecordPlaceholderResolutions(count int) {
	if count > 0 {
		globalManager.placeholderResolutions.Add(float64(count))
	}
}

// RecordDirectoryBatchLoad counts a directory batch fetch.
func RecordDirectoryBatchLoad(result string) {
	globalManager.directoryBatchLoads.WithLabelValues(result).Inc()
}

// RecordChangeNotification counts a published change notification.
func RecordChangeNotification(changeType string) {
	globalManager.changeNotifications.WithLabelValues(changeType).Inc()
}

// RecordChangeDropped counts a notification dropped for a full subscriber.
func RecordChangeDropped() {
	globalManager.changeDropped.Inc()
}

// UpdateFeedSubscribers sets the number of open feed subscriptions.
func UpdateFeedSubscribers(count int) {
	globalManager.feedSubscribers.Set(float64(count))
}

// RecordRemoteReload counts a reload triggered by the change listener.
func RecordRemoteReload(result string) {
	globalManager.remoteReloads.WithLabelValues(result).Inc()
}

// UpdateActiveSessions sets the number of open sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
