// Package metrics provides Prometheus metrics for the teampulse analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analytics pipeline
	analysesTotal    *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
	alertsEmitted    *prometheus.CounterVec
	nudgesEmitted    *prometheus.CounterVec
	instructorAlerts *prometheus.CounterVec
	recommendations  prometheus.Counter
	groupHealthScore *prometheus.GaugeVec
	groupsTotal      prometheus.Gauge

	// Phrase renderer
	rendererCalls   *prometheus.CounterVec
	rendererLatency *prometheus.HistogramVec

	// Ingestion and storage
	contributionsRecorded  prometheus.Counter
	contributionsDuplicate prometheus.Counter
	snapshotsSaved         prometheus.Counter
	storeLatency           *prometheus.HistogramVec
	authFailures           *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Refresh queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerActiveCount       prometheus.Gauge
	workerJobsProcessed     prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "teampulse",
		subsystem:        "analytics",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.analysesTotal = m.counterVec("analyses_total", "Analyses run by pipeline stage", "stage")
	m.analysisLatency = m.histogramVec("analysis_latency_milliseconds", "End-to-end analysis latency by stage", "stage")
	m.alertsEmitted = m.counterVec("alerts_emitted_total", "Group alerts emitted by category and severity", "category", "severity")
	m.nudgesEmitted = m.counterVec("nudges_emitted_total", "Personal nudges emitted by kind", "kind")
	m.instructorAlerts = m.counterVec("instructor_alerts_total", "Instructor alerts escalated by priority", "priority")
	m.recommendations = m.counter("recommendations_total", "Instructor recommendations produced")
	m.groupHealthScore = m.gaugeVec("group_health_score", "Most recent health score per group", "group_id")
	m.groupsTotal = m.gauge("groups_total", "Number of groups known to the store")

	m.rendererCalls = m.counterVec("renderer_calls_total", "Phrase renderer calls by kind and outcome", "kind", "outcome")
	m.rendererLatency = m.histogramVec("renderer_latency_milliseconds", "Phrase renderer latency by provider", "provider")

	m.contributionsRecorded = m.counter("contributions_recorded_total", "Contribution records accepted")
	m.contributionsDuplicate = m.counter("contributions_duplicate_total", "Contribution submissions rejected as duplicates")
	m.snapshotsSaved = m.counter("health_snapshots_saved_total", "Group health snapshots persisted")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Record store latency by operation", "operation")
	m.authFailures = m.counterVec("auth_failures_total", "Rejected requests by reason", "reason")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current number of pending refresh jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum refresh queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Refresh queue utilization (size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Refresh jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Refresh jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Refresh jobs rejected at enqueue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets)

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running refresh workers")
	m.workerJobsProcessed = m.counter("worker_jobs_processed_total", "Refresh jobs completed by workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Refresh job latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Refresh jobs that failed")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Analytics pipeline.

// RecordAnalysis counts one run of a pipeline stage.
func RecordAnalysis(stage string) {
	globalManager.analysesTotal.WithLabelValues(stage).Inc()
}

// RecordAnalysisLatency records how long a stage took, in milliseconds.
func RecordAnalysisLatency(stage string, latencyMs float64) {
	globalManager.analysisLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordAlert counts an emitted group alert.
func RecordAlert(category, severity string) {
	globalManager.alertsEmitted.WithLabelValues(category, severity).Inc()
}

// RecordNudge counts an emitted nudge.
func RecordNudge(kind string) {
	globalManager.nudgesEmitted.WithLabelValues(kind).Inc()
}

// RecordInstructorAlert counts an escalated instructor alert.
func RecordInstructorAlert(priority string) {
	globalManager.instructorAlerts.WithLabelValues(priority).Inc()
}

// RecordRecommendation counts an instructor recommendation.
func RecordRecommendation() {
	globalManager.recommendations.Inc()
}

// UpdateGroupHealthScore publishes the latest score for a group.
func UpdateGroupHealthScore(groupID string, score float64) {
	globalManager.groupHealthScore.WithLabelValues(groupID).Set(score)
}

// UpdateGroupsTotal sets the number of known groups.
func UpdateGroupsTotal(count int) {
	globalManager.groupsTotal.Set(float64(count))
}

// Phrase renderer.

// RecordRendererCall counts a renderer call. Outcome is ok, fallback or error.
func RecordRendererCall(kind, outcome string) {
	globalManager.rendererCalls.WithLabelValues(kind, outcome).Inc()
}

// RecordRendererLatency records renderer latency for a provider.
func RecordRendererLatency(provider string, latencyMs float64) {
	globalManager.rendererLatency.WithLabelValues(provider).Observe(latencyMs)
}

// Ingestion and storage.

func RecordContributionRecorded()  { globalManager.contributionsRecorded.Inc() }
func RecordContributionDuplicate() { globalManager.contributionsDuplicate.Inc() }
func RecordSnapshotSaved()         { globalManager.snapshotsSaved.Inc() }

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordAuthFailure counts a rejected request.
func RecordAuthFailure(reason string) {
	globalManager.authFailures.WithLabelValues(reason).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Refresh queue.

func UpdateQueueSize(size int)                   { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int)           { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }
func RecordQueueEnqueue()                        { globalManager.queueEnqueue.Inc() }
func RecordQueueDequeue()                        { globalManager.queueDequeue.Inc() }
func RecordQueueEnqueueError()                   { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerJobProcessed counts a completed refresh job.
func RecordWorkerJobProcessed() {
	globalManager.workerJobsProcessed.Inc()
}

// RecordWorkerProcessingLatency records refresh job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed refresh job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets heap usage in bytes.
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

// GetRegistry returns the registry the service's metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
