package triage

import (
	"context"
	"encoding/json"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harkveil/harkveil/internal/classifier"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/features"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/keyword"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/testutil"
	"github.com/harkveil/harkveil/internal/transcribe"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var operator = geo.Point{Latitude: geo.DefaultOperatorLatitude, Longitude: geo.DefaultOperatorLongitude}

// scriptedTranscriber returns canned text per origin name after an optional delay.
type scriptedTranscriber struct {
	texts  map[string]string
	delays map[string]time.Duration
}

func (s *scriptedTranscriber) Transcribe(ctx context.Context, c clip.AudioClip) transcribe.Result {
	if d := s.delays[c.OriginName]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return transcribe.Result{ClipID: c.ID, Status: transcribe.StatusFailed, Reason: ctx.Err()}
		}
	}
	text, ok := s.texts[c.OriginName]
	if !ok {
		return transcribe.Result{ClipID: c.ID, Status: transcribe.StatusFailed, Reason: errors.NewStd("decode failed")}
	}
	return transcribe.Result{ClipID: c.ID, Text: text, Status: transcribe.StatusOK}
}

// fixedExtractor fails for the named clips.
type fixedExtractor struct {
	fail  map[string]bool
	calls atomic.Int32
}

func (f *fixedExtractor) Extract(ctx context.Context, c clip.AudioClip) (features.Embedding, error) {
	f.calls.Add(1)
	if f.fail[c.OriginName] {
		return nil, features.ErrExtractionFailed
	}
	return make(features.Embedding, features.NumCoefficients), nil
}

// constClassifier labels every valid embedding REAL.
type constClassifier struct{}

func (constClassifier) Classify(emb features.Embedding, err error) classifier.Label {
	if err != nil {
		return classifier.LabelUnclassifiable
	}
	return classifier.LabelReal
}

func mustClip(t *testing.T, name string) clip.AudioClip {
	t.Helper()
	c, err := clip.New(name, []byte{1})
	require.NoError(t, err)
	return c
}

func newTestOrchestrator(t *testing.T, tr Transcriber, ex Extractor, cfg Config) *Orchestrator {
	t.Helper()
	lex, err := keyword.NewLexicon([]string{"help", "fire"})
	require.NoError(t, err)
	o, err := New(tr, ex, constClassifier{}, geo.NewSeededSimulator(operator, 10, 1), lex, cfg)
	require.NoError(t, err)
	return o
}

func TestTriagePreservesInputOrder(t *testing.T) {
	t.Parallel()

	// A finishes last, C first; records must still be A then C
	tr := &scriptedTranscriber{
		texts: map[string]string{
			"a.wav": "please help",
			"b.wav": "nothing to see",
			"c.wav": "there is a fire",
		},
		delays: map[string]time.Duration{"a.wav": 60 * time.Millisecond, "b.wav": 20 * time.Millisecond},
	}
	o := newTestOrchestrator(t, tr, &fixedExtractor{}, Config{Concurrency: 3})

	clips := []clip.AudioClip{mustClip(t, "a.wav"), mustClip(t, "b.wav"), mustClip(t, "c.wav")}
	report := o.Triage(context.Background(), clips)

	require.Len(t, report.Records, 2)
	assert.Equal(t, clips[0].ID, report.Records[0].ClipID)
	assert.Equal(t, clips[2].ID, report.Records[1].ClipID)
	assert.Equal(t, []string{"help"}, report.Records[0].Keywords)
	assert.Equal(t, []string{"fire"}, report.Records[1].Keywords)

	require.Len(t, report.Outcomes, 3)
	for i, out := range report.Outcomes {
		assert.Equal(t, clips[i].ID, out.ClipID)
	}
	assert.Equal(t, OutcomeNoMatch, report.Outcomes[1].Status)
	assert.Equal(t, ExtractionSkipped, report.Outcomes[1].Extraction)
	assert.Equal(t, operator, report.Operator)
}

func TestTriagePartialFailureIsolation(t *testing.T) {
	t.Parallel()

	tr := &scriptedTranscriber{texts: map[string]string{
		"valid.wav":   "help me please",
		"nomatch.wav": "just checking in",
	}}
	ex := &fixedExtractor{}
	o := newTestOrchestrator(t, tr, ex, Config{Concurrency: 2})

	clips := []clip.AudioClip{mustClip(t, "valid.wav"), mustClip(t, "corrupt.wav"), mustClip(t, "nomatch.wav")}
	report := o.Triage(context.Background(), clips)

	require.Len(t, report.Records, 1)
	assert.Equal(t, clips[0].ID, report.Records[0].ClipID)
	assert.Equal(t, classifier.LabelReal, report.Records[0].Label)

	assert.Equal(t, []OutcomeStatus{OutcomeEmergency, OutcomeTranscriptionFailed, OutcomeNoMatch},
		[]OutcomeStatus{report.Outcomes[0].Status, report.Outcomes[1].Status, report.Outcomes[2].Status})
	assert.Contains(t, report.Outcomes[1].Reason, "decode failed")
	assert.Equal(t, int32(1), ex.calls.Load(), "only emergencies are extracted")

	counts := report.Counts()
	assert.Equal(t, 1, counts[OutcomeEmergency])
	assert.Equal(t, 1, counts[OutcomeTranscriptionFailed])
}

func TestTriageExtractionFailureIsUnclassifiable(t *testing.T) {
	t.Parallel()

	tr := &scriptedTranscriber{texts: map[string]string{"x.mp3": "help"}}
	o := newTestOrchestrator(t, tr, &fixedExtractor{fail: map[string]bool{"x.mp3": true}}, Config{})

	report := o.Triage(context.Background(), []clip.AudioClip{mustClip(t, "x.mp3")})
	require.Len(t, report.Records, 1)
	assert.Equal(t, classifier.LabelUnclassifiable, report.Records[0].Label)
	assert.Equal(t, ExtractionFailed, report.Outcomes[0].Extraction)
	assert.Equal(t, clip.FormatMP3, report.Records[0].Format)
}

func TestTriageClipTimeout(t *testing.T) {
	t.Parallel()

	tr := &scriptedTranscriber{
		texts:  map[string]string{"slow.wav": "help", "fast.wav": "help"},
		delays: map[string]time.Duration{"slow.wav": 5 * time.Second},
	}
	o := newTestOrchestrator(t, tr, &fixedExtractor{}, Config{ClipTimeout: 30 * time.Millisecond})

	start := time.Now()
	report := o.Triage(context.Background(), []clip.AudioClip{mustClip(t, "slow.wav"), mustClip(t, "fast.wav")})
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "fast.wav", report.Records[0].OriginName)
	assert.Equal(t, OutcomeTranscriptionFailed, report.Outcomes[0].Status)
}

func TestTriageEmptyBatch(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, &scriptedTranscriber{}, &fixedExtractor{}, Config{})
	report := o.Triage(context.Background(), nil)
	assert.Empty(t, report.Records)
	assert.Empty(t, report.Outcomes)
	assert.NotNil(t, report.Records)
}

func TestTriageRecordFields(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := &scriptedTranscriber{texts: map[string]string{"+15551234567.wav": "fire fire help", "anon.wav": "help"}}
	o := newTestOrchestrator(t, tr, &fixedExtractor{}, Config{Now: func() time.Time { return fixed }})

	report := o.Triage(context.Background(), []clip.AudioClip{mustClip(t, "+15551234567.wav"), mustClip(t, "anon.wav")})
	require.Len(t, report.Records, 2)

	rec := report.Records[0]
	assert.Equal(t, "+15551234567", rec.Phone)
	assert.Equal(t, []string{"help", "fire"}, rec.Keywords)
	assert.Equal(t, fixed, rec.DetectedAt)
	assert.LessOrEqual(t, math.Abs(rec.CallerLocation.Latitude-operator.Latitude), 10.0/111)
	assert.LessOrEqual(t, math.Abs(rec.CallerLocation.Longitude-operator.Longitude), 10.0/111)
	assert.Equal(t, rec.ClipID+".wav", rec.AudioFile())

	assert.Regexp(t, `^\+1\d{10}$`, report.Records[1].Phone)
}

func TestEmergencyRecordJSONLossless(t *testing.T) {
	t.Parallel()

	rec := EmergencyRecord{
		ClipID:         "0123456789abcdef0123456789abcdef",
		OriginName:     "call 555.m4a",
		Format:         clip.FormatM4A,
		Keywords:       []string{"help", "i'm scared"},
		Label:          classifier.LabelFake,
		Phone:          "+1555",
		CallerLocation: geo.Point{Latitude: 16.51234567891234, Longitude: 80.6123456789012},
		DetectedAt:     time.Date(2026, 5, 4, 3, 2, 1, 123456789, time.UTC),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back EmergencyRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)

	require.Error(t, json.Unmarshal([]byte(`{"label":"MAYBE"}`), &back))
}

func TestTriageEndToEndWithRealStages(t *testing.T) {
	t.Parallel()

	valid, err := clip.New("valid.wav", testutil.ToneWAV(t, 300, 0.3, 1))
	require.NoError(t, err)
	corrupt, err := clip.New("corrupt.wav", []byte("garbage bytes"))
	require.NoError(t, err)
	quiet, err := clip.New("quiet.wav", wavData)
	require.NoError(t, err)

	decoder := myaudio.NewDecoder("")
	tr := transcribe.New(decoder, transcribe.NewStaticRecognizer(map[string]string{
		"valid.wav":   "Someone HELP, my neighbour collapsed",
		"corrupt.wav": "help",
		"quiet.wav":   "all good here",
	}))

	boundary, err := classifier.NewLinearBoundary(classifier.LinearModel{Coef: make([]float64, features.NumCoefficients), Intercept: 1})
	require.NoError(t, err)
	clf, err := classifier.New(boundary)
	require.NoError(t, err)

	o, err := New(tr, features.NewExtractor(decoder), clf, geo.NewSeededSimulator(operator, 10, 5), keyword.Default(), Config{Concurrency: 2})
	require.NoError(t, err)

	report := o.Triage(context.Background(), []clip.AudioClip{valid, corrupt, quiet})

	require.Len(t, report.Records, 1)
	rec := report.Records[0]
	assert.Equal(t, valid.ID, rec.ClipID)
	assert.Equal(t, []string{"help", "collapsed"}, rec.Keywords)
	assert.Equal(t, classifier.LabelReal, rec.Label)
	assert.Equal(t, OutcomeTranscriptionFailed, report.Outcomes[1].Status)
	assert.Equal(t, OutcomeNoMatch, report.Outcomes[2].Status)
}

// pcmRecorder decodes in both stages and keeps what each stage saw.
type pcmRecorder struct {
	decoder    *myaudio.Decoder
	transcribe atomic.Pointer[myaudio.PCM]
	extract    atomic.Pointer[myaudio.PCM]
}

func (p *pcmRecorder) Transcribe(ctx context.Context, c clip.AudioClip) transcribe.Result {
	pcm, err := p.decoder.DecodeAt(ctx, c.Data, string(c.Format), myaudio.TargetSampleRate)
	if err != nil {
		return transcribe.Result{ClipID: c.ID, Status: transcribe.StatusFailed, Reason: err}
	}
	p.transcribe.Store(pcm)
	return transcribe.Result{ClipID: c.ID, Text: "help", Status: transcribe.StatusOK}
}

func (p *pcmRecorder) Extract(ctx context.Context, c clip.AudioClip) (features.Embedding, error) {
	pcm, err := p.decoder.DecodeAt(ctx, c.Data, string(c.Format), myaudio.TargetSampleRate)
	if err != nil {
		return nil, err
	}
	p.extract.Store(pcm)
	return make(features.Embedding, features.NumCoefficients), nil
}

func TestTriageDecodesClipOnce(t *testing.T) {
	t.Parallel()

	c, err := clip.New("call.wav", testutil.ToneWAV(t, 300, 0.3, 0.5))
	require.NoError(t, err)

	rec := &pcmRecorder{decoder: myaudio.NewDecoder("")}
	o := newTestOrchestrator(t, rec, rec, Config{Concurrency: 1})

	report := o.Triage(t.Context(), []clip.AudioClip{c})

	require.Len(t, report.Records, 1)
	require.NotNil(t, rec.transcribe.Load())
	assert.Same(t, rec.transcribe.Load(), rec.extract.Load())
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(nil, &fixedExtractor{}, constClassifier{}, geo.NewSimulator(operator, 0, nil), keyword.Default(), Config{})
	require.Error(t, err)
}
