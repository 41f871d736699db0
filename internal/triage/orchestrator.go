// Package triage runs the per-clip pipeline (transcribe, detect, extract,
// classify, locate) over a batch of clips with bounded concurrency.
package triage

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harkveil/harkveil/internal/classifier"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/features"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/keyword"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/observability/metrics"
	"github.com/harkveil/harkveil/internal/privacy"
	"github.com/harkveil/harkveil/internal/transcribe"
)

// DefaultClipTimeout bounds each stage of a single clip.
const DefaultClipTimeout = 60 * time.Second

// Transcriber turns a clip into text and never fails outright.
type Transcriber interface {
	Transcribe(ctx context.Context, c clip.AudioClip) transcribe.Result
}

// Extractor computes the acoustic embedding of a clip.
type Extractor interface {
	Extract(ctx context.Context, c clip.AudioClip) (features.Embedding, error)
}

// Classifier labels an embedding and never fails outright.
type Classifier interface {
	Classify(emb features.Embedding, extractErr error) classifier.Label
}

// Locator provides the operator position, simulated caller positions and
// random digits for synthetic phone numbers.
type Locator interface {
	DigitSource
	OperatorLocation() geo.Point
	SpoofCallerLocation(origin geo.Point, radiusKm float64) geo.Point
	RadiusKm() float64
}

// Config tunes the orchestrator. Zero values select defaults.
type Config struct {
	Concurrency int
	ClipTimeout time.Duration
	Metrics     metrics.Recorder
	Now         func() time.Time
}

// Orchestrator is safe for concurrent use; its collaborators are read-only
// after construction.
type Orchestrator struct {
	transcriber Transcriber
	extractor   Extractor
	classifier  Classifier
	locator     Locator
	lexicon     *keyword.Lexicon

	concurrency int
	clipTimeout time.Duration
	metrics     metrics.Recorder
	now         func() time.Time
	log         logger.Logger
}

// New wires an orchestrator.
func New(t Transcriber, e Extractor, c Classifier, l Locator, lex *keyword.Lexicon, cfg Config) (*Orchestrator, error) {
	if t == nil || e == nil || c == nil || l == nil || lex == nil {
		return nil, errors.Newf("triage orchestrator requires all collaborators").
			Component("triage").
			Category(errors.CategoryConfiguration).
			Build()
	}

	o := &Orchestrator{
		transcriber: t,
		extractor:   e,
		classifier:  c,
		locator:     l,
		lexicon:     lex,
		concurrency: cfg.Concurrency,
		clipTimeout: cfg.ClipTimeout,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
		log:         GetLogger(),
	}
	if o.concurrency <= 0 {
		o.concurrency = min(max(runtime.NumCPU(), 1), 8)
	}
	if o.clipTimeout <= 0 {
		o.clipTimeout = DefaultClipTimeout
	}
	if o.metrics == nil {
		o.metrics = metrics.NoOp{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// OperatorLocation returns the fixed operator position.
func (o *Orchestrator) OperatorLocation() geo.Point {
	return o.locator.OperatorLocation()
}

// clipResult is written by exactly one worker at its input index.
type clipResult struct {
	outcome ClipOutcome
	record  *EmergencyRecord
}

// Triage processes clips concurrently and returns records and outcomes in
// input order. Failures degrade only the affected clip; Triage itself never
// fails. Cancelling ctx makes remaining clips fail fast.
func (o *Orchestrator) Triage(ctx context.Context, clips []clip.AudioClip) Report {
	report := Report{
		Operator: o.locator.OperatorLocation(),
		Records:  []EmergencyRecord{},
		Outcomes: make([]ClipOutcome, 0, len(clips)),
	}
	if len(clips) == 0 {
		return report
	}

	start := time.Now()
	results := make([]clipResult, len(clips))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, c := range clips {
		g.Go(func() error {
			results[i] = o.processClip(ctx, c)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	for _, r := range results {
		report.Outcomes = append(report.Outcomes, r.outcome)
		if r.record != nil {
			report.Records = append(report.Records, *r.record)
		}
	}

	o.log.WithContext(ctx).Info("triage batch complete",
		logger.Int("clips", len(clips)),
		logger.Int("emergencies", len(report.Records)),
		logger.Int("concurrency", o.concurrency),
		logger.Duration("elapsed", time.Since(start)))

	return report
}

func (o *Orchestrator) processClip(ctx context.Context, c clip.AudioClip) clipResult {
	o.metrics.ClipStarted()
	defer o.metrics.ClipFinished()

	clipStart := time.Now()
	log := o.log.WithContext(ctx).With(logger.ClipID(c.ID))

	// transcription and extraction share one decode of the clip
	ctx = myaudio.WithDecodeCache(ctx)

	outcome := ClipOutcome{
		ClipID:     c.ID,
		OriginName: c.OriginName,
		Extraction: ExtractionSkipped,
	}

	transcript := o.transcribeClip(ctx, c)
	if !transcript.OK() {
		outcome.Status = OutcomeTranscriptionFailed
		if transcript.Reason != nil {
			outcome.Reason = transcript.Reason.Error()
		}
		o.finish(outcome, clipStart)
		return clipResult{outcome: outcome}
	}

	match := keyword.Detect(transcript.Text, o.lexicon)
	log.Trace("transcript scanned",
		logger.Int("chars", len(transcript.Text)),
		logger.Int("matches", len(match)))
	if !match.IsEmergency() {
		outcome.Status = OutcomeNoMatch
		o.finish(outcome, clipStart)
		return clipResult{outcome: outcome}
	}

	phone := DerivePhone(c.OriginName, o.locator)

	emb, extractErr := o.extractClip(ctx, c)
	label := o.classifier.Classify(emb, extractErr)

	outcome.Status = OutcomeEmergency
	outcome.Extraction = ExtractionOK
	if extractErr != nil {
		outcome.Extraction = ExtractionFailed
		outcome.Reason = extractErr.Error()
	}

	record := &EmergencyRecord{
		ClipID:         c.ID,
		OriginName:     c.OriginName,
		Format:         c.Format,
		Keywords:       []string(match),
		Label:          label,
		Phone:          phone,
		CallerLocation: o.locator.SpoofCallerLocation(o.locator.OperatorLocation(), o.locator.RadiusKm()),
		DetectedAt:     o.now().UTC(),
	}

	o.metrics.RecordEmergency(string(label), record.Keywords)
	log.Info("emergency detected",
		logger.Strings("keywords", record.Keywords),
		logger.String("label", string(label)),
		logger.String("phone", privacy.MaskPhone(phone)))

	o.finish(outcome, clipStart)
	return clipResult{outcome: outcome, record: record}
}

func (o *Orchestrator) transcribeClip(ctx context.Context, c clip.AudioClip) transcribe.Result {
	stageCtx, cancel := context.WithTimeout(ctx, o.clipTimeout)
	defer cancel()

	start := time.Now()
	res := o.transcriber.Transcribe(stageCtx, c)
	o.metrics.RecordStage(metrics.StageTranscribe, stageStatus(res.Reason), time.Since(start).Seconds())
	return res
}

func (o *Orchestrator) extractClip(ctx context.Context, c clip.AudioClip) (features.Embedding, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.clipTimeout)
	defer cancel()

	start := time.Now()
	emb, err := o.extractor.Extract(stageCtx, c)
	if err != nil {
		o.log.WithContext(ctx).Warn("feature extraction failed", logger.ClipID(c.ID), logger.Stage(metrics.StageExtract), logger.Error(err))
	}
	o.metrics.RecordStage(metrics.StageExtract, stageStatus(err), time.Since(start).Seconds())
	return emb, err
}

func (o *Orchestrator) finish(outcome ClipOutcome, start time.Time) {
	o.metrics.RecordClip(string(outcome.Status))
	o.metrics.RecordStage(metrics.StageClip, metrics.StatusSuccess, time.Since(start).Seconds())
}

func stageStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusTimeout
	default:
		return metrics.StatusError
	}
}

// GetLogger returns the triage module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("triage")
}
