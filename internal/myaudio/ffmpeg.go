package myaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

// maxStderrBytes bounds the ffmpeg diagnostics kept for error messages.
const maxStderrBytes = 2048

// decodeWithFFmpeg writes data to a temporary file and asks ffmpeg for
// 16 kHz mono s16le on stdout. A file input is used because mp4/m4a
// containers may keep their index at the end of the stream.
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, data []byte, format string) (*PCM, error) {
	if d.FfmpegPath == "" {
		return nil, ErrFFmpegUnavailable
	}

	tmp, err := os.CreateTemp("", "harkveil-*."+format)
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg input file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			GetLogger().Warn("failed to remove ffmpeg input file",
				logger.String("path", tmpPath),
				logger.Error(err))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write ffmpeg input file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ffmpeg input file: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.FfmpegPath, buildFFmpegDecodeArgs(tmpPath)...) //nolint:gosec // ffmpeg path is validated at startup

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(ctx.Err()).
				Component("myaudio").
				Category(errors.CategoryTimeout).
				Context("operation", "ffmpeg_decode").
				Build()
		}
		return nil, errors.Newf("ffmpeg decode failed: %w: %s", err, truncateStderr(stderr.String())).
			Component("myaudio").
			Category(errors.CategoryCommandExecution).
			Context("format", format).
			Build()
	}

	samples := s16leToFloat(stdout.Bytes())
	GetLogger().Debug("decoded clip with ffmpeg",
		logger.String("format", format),
		logger.Int("samples", len(samples)))

	return &PCM{Samples: samples, SampleRate: TargetSampleRate}, nil
}

// buildFFmpegDecodeArgs constructs the arguments for a decode to raw PCM
func buildFFmpegDecodeArgs(inputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(TargetSampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	}
}

func s16leToFloat(raw []byte) []float64 {
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
	}
	return samples
}

func truncateStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrBytes {
		return s[len(s)-maxStderrBytes:]
	}
	return s
}
