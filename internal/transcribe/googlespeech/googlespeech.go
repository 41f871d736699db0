// Package googlespeech is a transcribe.Recognizer backed by Google Cloud
// Speech-to-Text.
package googlespeech

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/transcribe"
)

// Config selects the recognition model and credentials.
type Config struct {
	CredentialsFile string
	LanguageCode    string
	Model           string
	UseEnhanced     bool
	MaxRetries      int
	// RequestsPerSecond throttles calls to stay under the project quota; 0 disables.
	RequestsPerSecond float64
}

const (
	// maxSyncDuration is the longest audio the synchronous Recognize RPC accepts.
	maxSyncDuration = time.Minute
	// maxInlineBytes caps inline audio content for either RPC.
	maxInlineBytes = 10 << 20
)

// ErrAudioTooLong is returned for clips whose LINEAR16 payload exceeds the
// inline content limit.
var ErrAudioTooLong = errors.NewStd("audio exceeds the inline speech request limit")

// recognizeFunc and longRecognizeFunc are the subset of the Speech client the
// backend calls.
type (
	recognizeFunc     func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	longRecognizeFunc func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)
)

// Recognizer calls the synchronous Recognize RPC with LINEAR16 audio, and
// LongRunningRecognize for clips over a minute.
type Recognizer struct {
	cfg           Config
	recognize     recognizeFunc
	longRecognize longRecognizeFunc
	closeFn       func() error
	limiter       *rate.Limiter
	log           logger.Logger
}

// New dials the Speech API. Without a credentials file the client falls back
// to application default credentials.
func New(ctx context.Context, cfg Config) (*Recognizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	r := newRecognizer(cfg, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	})
	r.longRecognize = func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	}
	r.closeFn = client.Close
	return r, nil
}

func newRecognizer(cfg Config, fn recognizeFunc) *Recognizer {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	r := &Recognizer{
		cfg:       cfg,
		recognize: fn,
		closeFn:   func() error { return nil },
		log:       logger.Global().Module("transcribe").Module("google"),
	}
	if cfg.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return r
}

// Name implements transcribe.Recognizer.
func (r *Recognizer) Name() string {
	return "google"
}

// Close releases the gRPC connection.
func (r *Recognizer) Close() error {
	return r.closeFn()
}

// Recognize implements transcribe.Recognizer.
func (r *Recognizer) Recognize(ctx context.Context, req transcribe.Request) (string, error) {
	if req.PCM == nil || len(req.PCM.Samples) == 0 {
		return "", nil
	}

	duration := req.PCM.Duration()
	if size := 2 * len(req.PCM.Samples); size > maxInlineBytes {
		r.log.Warn("clip too long for inline recognition",
			logger.ClipID(req.ClipID),
			logger.Duration("audio", duration),
			logger.Int("bytes", size))
		return "", fmt.Errorf("%w: %s of audio", ErrAudioTooLong, duration)
	}

	rpcReq := buildRequest(req.PCM, r.cfg)

	if duration > maxSyncDuration {
		return r.recognizeLong(ctx, req.ClipID, duration, rpcReq)
	}

	resp, err := withRetry(ctx, r, func() (*speechpb.RecognizeResponse, error) {
		if err := r.wait(ctx); err != nil {
			return nil, err
		}
		return r.recognize(ctx, rpcReq)
	})
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}

	return joinTranscripts(resp.GetResults()), nil
}

// recognizeLong sends the same config and audio as a long-running operation
// and waits for it.
func (r *Recognizer) recognizeLong(ctx context.Context, clipID string, duration time.Duration, rpcReq *speechpb.RecognizeRequest) (string, error) {
	if r.longRecognize == nil {
		return "", fmt.Errorf("%w: %s exceeds the synchronous limit", ErrAudioTooLong, duration)
	}

	r.log.Debug("using long-running recognition",
		logger.ClipID(clipID),
		logger.Duration("audio", duration))

	longReq := &speechpb.LongRunningRecognizeRequest{Config: rpcReq.GetConfig(), Audio: rpcReq.GetAudio()}
	resp, err := withRetry(ctx, r, func() (*speechpb.LongRunningRecognizeResponse, error) {
		if err := r.wait(ctx); err != nil {
			return nil, err
		}
		return r.longRecognize(ctx, longReq)
	})
	if err != nil {
		return "", fmt.Errorf("speech longrunningrecognize: %w", err)
	}

	return joinTranscripts(resp.GetResults()), nil
}

func (r *Recognizer) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

func buildRequest(pcm *myaudio.PCM, cfg Config) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(pcm.SampleRate), //nolint:gosec // G115: sample rate is a small constant
			AudioChannelCount: 1,
			LanguageCode:      cfg.LanguageCode,
			Model:             cfg.Model,
			UseEnhanced:       cfg.UseEnhanced,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: myaudio.Linear16(pcm.Samples)},
		},
	}
}

// joinTranscripts concatenates the top alternative of every result.
func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	var full strings.Builder
	for _, res := range results {
		alts := res.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		text := strings.TrimSpace(alts[0].GetTranscript())
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
	}
	return full.String()
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func withRetry[T any](ctx context.Context, r *Recognizer, fn func() (T, error)) (T, error) {
	backoff := 500 * time.Millisecond
	var zero T
	var last error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err
		if !retryable(err) || attempt == r.cfg.MaxRetries {
			break
		}

		r.log.Debug("retrying speech request",
			logger.Int("attempt", attempt+1),
			logger.Duration("backoff", backoff),
			logger.Error(err))

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 8*time.Second)
	}
	return zero, last
}
