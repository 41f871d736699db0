package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload rejection reasons.
const (
	RejectTooLarge    = "too_large"
	RejectUnreadable  = "unreadable"
	RejectInvalidFile = "invalid_file"
)

// HTTPMetrics covers the API server: request rate, latency and size by
// route pattern, plus what happens to uploaded audio before triage.
type HTTPMetrics struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	responseBytes   *prometheus.HistogramVec
	uploadBytes     prometheus.Histogram
	uploadsRejected *prometheus.CounterVec

	outbound        *prometheus.CounterVec
	outboundLatency *prometheus.HistogramVec
}

// OutboundError labels outbound requests that got no response.
const OutboundError = "error"

// NewHTTPMetrics builds the collectors and registers them with registry.
func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		// path is the route pattern, never the raw URL, to bound cardinality
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harkveil_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "path", "status_code"}),

		// uploads run the whole pipeline synchronously, hence the long tail
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harkveil_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{.005, .025, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method", "path"}),

		responseBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harkveil_http_response_size_bytes",
			Help:    "HTTP response size by method and route",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"method", "path"}),

		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harkveil_upload_file_size_bytes",
			Help:    "Size of accepted uploaded audio files",
			Buckets: prometheus.ExponentialBuckets(16<<10, 4, 7),
		}),

		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harkveil_uploads_rejected_total",
			Help: "Uploaded files dropped before triage, by reason",
		}, []string{"reason"}),

		// host is the configured speech endpoint, so cardinality stays small
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harkveil_outbound_requests_total",
			Help: "Outbound requests to speech backends by host and status",
		}, []string{"host", "status"}),

		outboundLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harkveil_outbound_request_duration_seconds",
			Help:    "Time until an outbound request returned response headers",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"host"}),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.responseBytes, m.uploadBytes, m.uploadsRejected, m.outbound, m.outboundLatency}
}

// Describe implements prometheus.Collector.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordHTTPRequest records a finished request.
func (m *HTTPMetrics) RecordHTTPRequest(method, path string, statusCode int, duration float64, sizeBytes int64) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.latency.WithLabelValues(method, path).Observe(duration)
	m.responseBytes.WithLabelValues(method, path).Observe(float64(sizeBytes))
}

// ObserveUpload records the size of an accepted upload.
func (m *HTTPMetrics) ObserveUpload(sizeBytes int) {
	m.uploadBytes.Observe(float64(sizeBytes))
}

// RecordUploadRejected counts a dropped upload; reason is one of the
// Reject constants.
func (m *HTTPMetrics) RecordUploadRejected(reason string) {
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

// RecordOutboundRequest records a request made by the shared HTTP client.
// A statusCode of 0 or a non-nil err counts as OutboundError.
func (m *HTTPMetrics) RecordOutboundRequest(host string, statusCode int, err error, duration float64) {
	status := OutboundError
	if err == nil && statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.outbound.WithLabelValues(host, status).Inc()
	m.outboundLatency.WithLabelValues(host).Observe(duration)
}
