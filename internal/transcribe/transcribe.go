// Package transcribe converts audio clips to normalized lowercase text using
// a pluggable speech recognition backend.
package transcribe

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/myaudio"
)

// Status is the transcription outcome.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

var (
	// ErrSilentAudio is reported when the decoded clip carries no signal.
	ErrSilentAudio = errors.NewStd("audio is silent")
	// ErrNoSpeech is reported when the backend recognized nothing.
	ErrNoSpeech = errors.NewStd("no speech recognized")
)

// silenceThreshold is the peak amplitude below which a clip counts as silent.
const silenceThreshold = 1e-4

// Result is the transcript of one clip. A failed result always has empty Text.
type Result struct {
	ClipID string
	Text   string
	Status Status
	Reason error
}

// OK reports whether transcription succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Request is what a Recognizer receives for one clip.
type Request struct {
	ClipID     string
	OriginName string
	PCM        *myaudio.PCM // mono, 16 kHz
}

// Recognizer is a speech-to-text backend.
type Recognizer interface {
	Recognize(ctx context.Context, req Request) (string, error)
	Name() string
}

// Decoder decodes clip bytes to PCM at a fixed sample rate.
type Decoder interface {
	DecodeAt(ctx context.Context, data []byte, format string, sampleRate int) (*myaudio.PCM, error)
}

// Transcriber decodes clips and passes them to a Recognizer. It is safe for
// concurrent use when the Recognizer is.
type Transcriber struct {
	decoder    Decoder
	recognizer Recognizer
	log        logger.Logger
}

// New returns a Transcriber.
func New(decoder Decoder, recognizer Recognizer) *Transcriber {
	return &Transcriber{
		decoder:    decoder,
		recognizer: recognizer,
		log:        GetLogger(),
	}
}

// Backend returns the recognizer name.
func (t *Transcriber) Backend() string {
	return t.recognizer.Name()
}

// Transcribe never returns an error: decode failures, backend failures,
// timeouts and silent audio all produce a failed Result with a reason.
func (t *Transcriber) Transcribe(ctx context.Context, c clip.AudioClip) Result {
	start := time.Now()

	text, err := t.transcribe(ctx, c)
	if err != nil {
		t.log.Warn("transcription failed",
			logger.ClipID(c.ID),
			logger.String("backend", t.recognizer.Name()),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return Result{ClipID: c.ID, Status: StatusFailed, Reason: err}
	}

	t.log.Debug("clip transcribed",
		logger.ClipID(c.ID),
		logger.Int("chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))

	return Result{ClipID: c.ID, Text: text, Status: StatusOK}
}

func (t *Transcriber) transcribe(ctx context.Context, c clip.AudioClip) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pcm, err := t.decoder.DecodeAt(ctx, c.Data, string(c.Format), myaudio.TargetSampleRate)
	if err != nil {
		return "", t.wrap(err, c, "decode")
	}
	if isSilent(pcm.Samples) {
		return "", t.wrap(ErrSilentAudio, c, "decode")
	}

	raw, err := t.recognizer.Recognize(ctx, Request{ClipID: c.ID, OriginName: c.OriginName, PCM: pcm})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return "", t.wrap(err, c, "recognize")
	}

	text := Normalize(raw)
	if text == "" {
		return "", t.wrap(ErrNoSpeech, c, "recognize")
	}
	return text, nil
}

func (t *Transcriber) wrap(err error, c clip.AudioClip, stage string) error {
	category := errors.CategoryTranscription
	if errors.Is(err, context.DeadlineExceeded) {
		category = errors.CategoryTimeout
	}
	return errors.New(err).
		Component("transcribe").
		Category(category).
		ClipContext(c.ID, c.OriginName).
		Context("stage", stage).
		Context("backend", t.recognizer.Name()).
		Build()
}

// apostrophes folds typographic quotes so "can’t" matches "can't".
var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u02bc", "'")

// Normalize applies NFKC, lowercases, folds apostrophes and collapses
// whitespace runs.
func Normalize(s string) string {
	// Casers are stateful and must not be shared between goroutines
	s = cases.Lower(language.Und).String(norm.NFKC.String(s))
	s = apostrophes.Replace(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func isSilent(samples []float64) bool {
	for _, s := range samples {
		if math.Abs(s) >= silenceThreshold {
			return false
		}
	}
	return true
}

// GetLogger returns the transcribe module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("transcribe")
}
