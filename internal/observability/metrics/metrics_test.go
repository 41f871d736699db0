package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriageMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewTriageMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordClip(OutcomeEmergency)
	m.RecordClip(OutcomeEmergency)
	m.RecordClip(OutcomeNoMatch)
	m.RecordEmergency("REAL", []string{"help", "fire"})
	m.RecordStage(StageTranscribe, StatusSuccess, 0.2)

	assert.InDelta(t, 2, testutil.ToFloat64(m.clipsTotal.WithLabelValues(OutcomeEmergency)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.clipsTotal.WithLabelValues(OutcomeNoMatch)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.emergenciesTotal.WithLabelValues("REAL")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.keywordHits.WithLabelValues("fire")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))

	m.ClipStarted()
	m.ClipStarted()
	m.ClipFinished()
	assert.InDelta(t, 1, m.ActiveClips(), 0)
}

func TestTriageMetricsDoubleRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewTriageMetrics(registry)
	require.NoError(t, err)
	_, err = NewTriageMetrics(registry)
	require.Error(t, err)
}

func TestHTTPMetricsExposition(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	m.RecordHTTPRequest("POST", "/api/v1/triage", 200, 0.5, 2048)
	m.RecordUploadRejected(RejectTooLarge)
	m.RecordUploadRejected(RejectTooLarge)
	m.ObserveUpload(64 << 10)

	expected := `
# HELP harkveil_uploads_rejected_total Uploaded files dropped before triage, by reason
# TYPE harkveil_uploads_rejected_total counter
harkveil_uploads_rejected_total{reason="too_large"} 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "harkveil_uploads_rejected_total"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/v1/triage", "200")), 0)

	count, err := testutil.GatherAndCount(registry, "harkveil_upload_file_size_bytes")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOutboundRequestMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	m.RecordOutboundRequest("asr:9000", 200, nil, 1.2)
	m.RecordOutboundRequest("asr:9000", 0, errors.New("connection refused"), 0.01)
	m.RecordOutboundRequest("asr:9000", 502, nil, 0.3)

	assert.InDelta(t, 1, testutil.ToFloat64(m.outbound.WithLabelValues("asr:9000", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.outbound.WithLabelValues("asr:9000", OutboundError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.outbound.WithLabelValues("asr:9000", "502")), 0)
}

func TestAlertMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewAlertMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.UpdateConnectionStatus(true)
	m.ObservePublish(300, 20*time.Millisecond, nil)
	m.ObservePublish(300, 0, errors.New("timeout"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertsPublished), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PublishErrors), 0)
}

func TestNoOpRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NoOp{}
	r.ClipStarted()
	r.RecordClip(OutcomeNoMatch)
	r.RecordStage(StageExtract, StatusError, 1)
	r.RecordEmergency("FAKE", nil)
	r.ClipFinished()
}
