package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/harkveil/harkveil/internal/logger"
)

// TriageMetrics tracks clip processing, stage latency and detections.
type TriageMetrics struct {
	clipsTotal       *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	emergenciesTotal *prometheus.CounterVec
	keywordHits      *prometheus.CounterVec
	activeClips      prometheus.Gauge
	registry         *prometheus.Registry
}

// NewTriageMetrics creates and registers the triage collectors.
func NewTriageMetrics(registry *prometheus.Registry) (*TriageMetrics, error) {
	m := &TriageMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register triage metrics: %w", err)
	}
	return m, nil
}

func (m *TriageMetrics) initMetrics() {
	m.clipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harkveil_clips_processed_total",
			Help: "Total number of clips processed, by outcome",
		},
		[]string{"outcome"},
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harkveil_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"stage", "status"},
	)

	m.emergenciesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harkveil_emergencies_detected_total",
			Help: "Total number of emergency records, by voice label",
		},
		[]string{"label"},
	)

	// bounded by lexicon size
	m.keywordHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harkveil_keyword_hits_total",
			Help: "Total number of lexicon phrase matches",
		},
		[]string{"phrase"},
	)

	m.activeClips = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "harkveil_active_clips",
		Help: "Number of clips currently being processed",
	})
}

func (m *TriageMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.clipsTotal,
		m.stageDuration,
		m.emergenciesTotal,
		m.keywordHits,
		m.activeClips,
	}
}

// Describe implements prometheus.Collector.
func (m *TriageMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *TriageMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordClip implements Recorder.
func (m *TriageMetrics) RecordClip(outcome string) {
	m.clipsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage implements Recorder.
func (m *TriageMetrics) RecordStage(stage, status string, seconds float64) {
	m.stageDuration.WithLabelValues(stage, status).Observe(seconds)
}

// RecordEmergency implements Recorder.
func (m *TriageMetrics) RecordEmergency(label string, keywords []string) {
	m.emergenciesTotal.WithLabelValues(label).Inc()
	for _, k := range keywords {
		m.keywordHits.WithLabelValues(k).Inc()
	}
}

// ClipStarted implements Recorder.
func (m *TriageMetrics) ClipStarted() {
	m.activeClips.Inc()
}

// ClipFinished implements Recorder.
func (m *TriageMetrics) ClipFinished() {
	m.activeClips.Dec()
}

// ActiveClips returns the in-flight clip count.
func (m *TriageMetrics) ActiveClips() float64 {
	metric := &dto.Metric{}
	if err := m.activeClips.Write(metric); err != nil {
		GetLogger().Warn("failed to read active clips gauge", logger.Error(err))
		return 0
	}
	if metric.Gauge != nil && metric.Gauge.Value != nil {
		return *metric.Gauge.Value
	}
	return 0
}
