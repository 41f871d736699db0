package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AlertMetrics covers the MQTT emergency alert publisher.
type AlertMetrics struct {
	ConnectionStatus  prometheus.Gauge
	AlertsPublished   prometheus.Counter
	PublishErrors     prometheus.Counter
	ReconnectAttempts prometheus.Counter
	PayloadSize       prometheus.Histogram
	PublishLatency    prometheus.Histogram
}

// NewAlertMetrics creates and registers the alert collectors.
func NewAlertMetrics(registry *prometheus.Registry) (*AlertMetrics, error) {
	m := &AlertMetrics{
		ConnectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harkveil_alert_broker_connected",
			Help: "MQTT broker connection status (1 connected, 0 disconnected)",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harkveil_alerts_published_total",
			Help: "Emergency alerts acknowledged by the broker",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harkveil_alert_errors_total",
			Help: "Emergency alerts that failed to publish",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harkveil_alert_reconnects_total",
			Help: "MQTT reconnection attempts",
		}),
		PayloadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harkveil_alert_payload_bytes",
			Help:    "Size of published alert payloads",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		}),
		PublishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harkveil_alert_publish_latency_seconds",
			Help:    "Time from publish to broker acknowledgement",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register alert metrics: %w", err)
	}
	return m, nil
}

// UpdateConnectionStatus sets the connection gauge.
func (m *AlertMetrics) UpdateConnectionStatus(connected bool) {
	if connected {
		m.ConnectionStatus.Set(1)
		return
	}
	m.ConnectionStatus.Set(0)
}

// ObservePublish records one publish attempt.
func (m *AlertMetrics) ObservePublish(sizeBytes int, latency time.Duration, err error) {
	if err != nil {
		m.PublishErrors.Inc()
		return
	}
	m.AlertsPublished.Inc()
	m.PayloadSize.Observe(float64(sizeBytes))
	m.PublishLatency.Observe(latency.Seconds())
}

// Collect implements the prometheus.Collector interface.
func (m *AlertMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.ConnectionStatus
	ch <- m.AlertsPublished
	ch <- m.PublishErrors
	ch <- m.ReconnectAttempts
	ch <- m.PayloadSize
	ch <- m.PublishLatency
}

// Describe implements the prometheus.Collector interface.
func (m *AlertMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.ConnectionStatus.Desc()
	ch <- m.AlertsPublished.Desc()
	ch <- m.PublishErrors.Desc()
	ch <- m.ReconnectAttempts.Desc()
	ch <- m.PayloadSize.Desc()
	ch <- m.PublishLatency.Desc()
}
