package myaudio

import (
	"github.com/harkveil/harkveil/internal/errors"
)

// Error sentinel values for common myaudio errors
var (
	// ErrEmptyAudio is returned when a clip decodes to zero samples
	ErrEmptyAudio = errors.NewStd("audio contains no samples")

	// ErrUnsupportedFormat is returned for containers the decoder cannot handle
	ErrUnsupportedFormat = errors.NewStd("unsupported audio format")

	// ErrFFmpegUnavailable is returned when a compressed clip arrives and no ffmpeg binary is configured
	ErrFFmpegUnavailable = errors.NewStd("ffmpeg is required to decode this format")
)

// getAudioDivisor returns the full-scale value for signed PCM of the given bit depth.
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.Newf("unsupported audio bit depth: %d", bitDepth).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Build()
	}
}
