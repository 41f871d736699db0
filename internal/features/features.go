// Package features turns audio clips into fixed-length MFCC embeddings for
// the voice authenticity classifier.
package features

import (
	"context"
	"math"

	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/myaudio"
)

// NumCoefficients is the embedding length.
const NumCoefficients = 13

// ErrExtractionFailed is returned when a clip cannot be decoded or yields a
// degenerate embedding.
var ErrExtractionFailed = errors.NewStd("feature extraction failed")

// Embedding is the per-coefficient mean of the clip's MFCC frames.
type Embedding []float64

// Decoder decodes clip bytes to PCM at a fixed sample rate.
type Decoder interface {
	DecodeAt(ctx context.Context, data []byte, format string, sampleRate int) (*myaudio.PCM, error)
}

// Extractor computes embeddings. It is safe for concurrent use.
type Extractor struct {
	decoder Decoder
	plan    *mfccPlan
	log     logger.Logger
}

// NewExtractor returns an Extractor using the default 16 kHz MFCC configuration.
func NewExtractor(decoder Decoder) *Extractor {
	return NewExtractorWithConfig(decoder, DefaultMFCCConfig())
}

// NewExtractorWithConfig returns an Extractor with custom analysis parameters.
func NewExtractorWithConfig(decoder Decoder, cfg MFCCConfig) *Extractor {
	return &Extractor{
		decoder: decoder,
		plan:    newMFCCPlan(cfg),
		log:     GetLogger(),
	}
}

// Dim returns the embedding length.
func (e *Extractor) Dim() int {
	return e.plan.cfg.NumCoefficients
}

// Extract decodes c to mono PCM at the analysis rate and returns its embedding.
func (e *Extractor) Extract(ctx context.Context, c clip.AudioClip) (Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pcm, err := e.decoder.DecodeAt(ctx, c.Data, string(c.Format), e.plan.cfg.SampleRate)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn("clip decode failed",
			logger.ClipID(c.ID),
			logger.String("format", string(c.Format)),
			logger.Error(err))
		return nil, errors.New(errors.Join(ErrExtractionFailed, err)).
			Component("features").
			Category(errors.CategoryFeatureExtraction).
			ClipContext(c.ID, c.OriginName).
			Context("stage", "decode").
			Build()
	}

	emb, err := e.FromPCM(pcm.Samples)
	if err != nil {
		return nil, errors.New(err).
			Component("features").
			Category(errors.CategoryFeatureExtraction).
			ClipContext(c.ID, c.OriginName).
			Context("stage", "mfcc").
			Build()
	}

	e.log.Debug("embedding extracted",
		logger.ClipID(c.ID),
		logger.Duration("audio", pcm.Duration()))

	return emb, nil
}

// FromPCM computes the embedding of samples already at the analysis rate.
func (e *Extractor) FromPCM(samples []float64) (Embedding, error) {
	if len(samples) == 0 {
		return nil, ErrExtractionFailed
	}
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, ErrExtractionFailed
		}
	}

	mean := e.plan.meanMFCC(e.plan.melSpectrogramDB(samples))
	for _, v := range mean {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrExtractionFailed
		}
	}
	return Embedding(mean), nil
}

// GetLogger returns the features module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("features")
}
