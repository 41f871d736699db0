package myaudio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

// PCM is mono audio normalized to [-1, 1].
type PCM struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length of the buffer.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(p.Samples)) / float64(p.SampleRate) * float64(time.Second))
}

// Decoder turns encoded clip bytes into PCM. The zero value decodes WAV and
// FLAC only.
type Decoder struct {
	// FfmpegPath is the ffmpeg binary used for compressed containers.
	FfmpegPath string
}

// NewDecoder returns a Decoder using the given ffmpeg binary, which may be empty.
func NewDecoder(ffmpegPath string) *Decoder {
	return &Decoder{FfmpegPath: ffmpegPath}
}

// Decode decodes data in the named container format ("wav", "flac", "mp3",
// "m4a" or "mp4") into mono PCM at its native sample rate.
func (d *Decoder) Decode(ctx context.Context, data []byte, format string) (*PCM, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	format = strings.ToLower(strings.TrimPrefix(format, "."))

	cache := cacheFrom(ctx)
	key := keyFor(data, format, 0)
	if cached := cache.get(key); cached != nil {
		return cached, nil
	}

	var (
		pcm *PCM
		err error
	)

	switch format {
	case "wav":
		pcm, err = decodeWAV(bytes.NewReader(data))
	case "flac":
		pcm, err = decodeFLAC(data)
	case "mp3", "m4a", "mp4":
		pcm, err = d.decodeWithFFmpeg(ctx, data, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	// odd WAV/FLAC variants (float PCM, extensible headers) still decode via ffmpeg
	if err != nil && (format == "wav" || format == "flac") && d.FfmpegPath != "" && ctx.Err() == nil {
		GetLogger().Debug("native decode failed, retrying with ffmpeg",
			logger.String("format", format),
			logger.Error(err))
		pcm, err = d.decodeWithFFmpeg(ctx, data, format)
	}

	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("format", format).
			Context("operation", "decode").
			Build()
	}

	if len(pcm.Samples) == 0 {
		return nil, ErrEmptyAudio
	}

	cache.put(key, pcm)
	return pcm, nil
}

// DecodeAt decodes data and resamples the result to sampleRate.
func (d *Decoder) DecodeAt(ctx context.Context, data []byte, format string, sampleRate int) (*PCM, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	cache := cacheFrom(ctx)
	key := keyFor(data, strings.ToLower(strings.TrimPrefix(format, ".")), sampleRate)
	if cached := cache.get(key); cached != nil {
		return cached, nil
	}

	pcm, err := d.Decode(ctx, data, format)
	if err != nil {
		return nil, err
	}
	if pcm.SampleRate == sampleRate {
		return pcm, nil
	}

	resampled, err := ResampleAudio(pcm.Samples, pcm.SampleRate, sampleRate)
	if err != nil {
		return nil, err
	}
	if len(resampled) == 0 {
		return nil, ErrEmptyAudio
	}
	out := &PCM{Samples: resampled, SampleRate: sampleRate}
	cache.put(key, out)
	return out, nil
}

// downmix averages interleaved channels into mono.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
