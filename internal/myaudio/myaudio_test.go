package myaudio

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWave(freq float64, sampleRate int, seconds float64, amplitude float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()

	src := &PCM{Samples: sineWave(440, 22050, 0.5, 0.5), SampleRate: 22050}
	data, err := WAVBytes(src)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("RIFF")))

	pcm, err := NewDecoder("").Decode(context.Background(), data, "WAV")
	require.NoError(t, err)

	assert.Equal(t, 22050, pcm.SampleRate)
	require.Len(t, pcm.Samples, len(src.Samples))
	for i := 0; i < len(src.Samples); i += 997 {
		assert.InDelta(t, src.Samples[i], pcm.Samples[i], 1.0/16384)
	}
}

func TestDecodeAtResamplesTo16k(t *testing.T) {
	t.Parallel()

	src := &PCM{Samples: sineWave(300, 44100, 1.0, 0.3), SampleRate: 44100}
	data, err := WAVBytes(src)
	require.NoError(t, err)

	pcm, err := NewDecoder("").DecodeAt(context.Background(), data, ".wav", TargetSampleRate)
	require.NoError(t, err)

	assert.Equal(t, TargetSampleRate, pcm.SampleRate)
	assert.InDelta(t, TargetSampleRate, len(pcm.Samples), 2)
	assert.InDelta(t, 1.0, pcm.Duration().Seconds(), 0.001)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	dec := NewDecoder("")
	ctx := context.Background()

	_, err := dec.Decode(ctx, nil, "wav")
	require.ErrorIs(t, err, ErrEmptyAudio)

	_, err = dec.Decode(ctx, []byte("OggS...."), "ogg")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = dec.Decode(ctx, []byte("definitely not a wav file"), "wav")
	require.Error(t, err)

	_, err = dec.Decode(ctx, []byte{0xff, 0xfb, 0x90, 0x00}, "mp3")
	require.ErrorIs(t, err, ErrFFmpegUnavailable)
}

func TestResampleAudio(t *testing.T) {
	t.Parallel()

	same := []float64{0.1, 0.2}
	out, err := ResampleAudio(same, 16000, 16000)
	require.NoError(t, err)
	assert.Equal(t, same, out)

	// Short inputs must not index out of range
	out, err = ResampleAudio([]float64{0.5, -0.5}, 8000, 16000)
	require.NoError(t, err)
	assert.Len(t, out, 4)

	constant := make([]float64, 4800)
	for i := range constant {
		constant[i] = 0.25
	}
	out, err = ResampleAudio(constant, 48000, 16000)
	require.NoError(t, err)
	assert.Len(t, out, 1600)
	for _, v := range out {
		assert.InDelta(t, 0.25, v, 1e-12)
	}

	_, err = ResampleAudio(constant, 0, 16000)
	require.Error(t, err)
}

func TestDownmix(t *testing.T) {
	t.Parallel()

	mono := downmix([]float64{1, 0, 0.5, 0.5, -1, 1}, 2)
	assert.Equal(t, []float64{0.5, 0.5, 0}, mono)
}

func TestLinear16Clipping(t *testing.T) {
	t.Parallel()

	raw := Linear16([]float64{0, 1.5, -1.5})
	require.Len(t, raw, 6)
	assert.Equal(t, []int16{0, math.MaxInt16, math.MinInt16}, ToInt16([]float64{0, 1.5, -1.5}))
}

func TestFFmpegArgs(t *testing.T) {
	t.Parallel()

	args := buildFFmpegDecodeArgs("/tmp/in.m4a")
	assert.Contains(t, args, "/tmp/in.m4a")
	assert.Contains(t, args, "s16le")
	assert.Contains(t, args, "16000")
	assert.Equal(t, "-", args[len(args)-1])
}

func TestS16leToFloat(t *testing.T) {
	t.Parallel()

	samples := s16leToFloat([]byte{0x00, 0x40, 0x00, 0xc0, 0x01})
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0], 1e-9)
	assert.InDelta(t, -0.5, samples[1], 1e-9)
}

func TestDecodeCacheSharesPCMWithinScope(t *testing.T) {
	t.Parallel()

	data, err := WAVBytes(&PCM{Samples: sineWave(300, 22050, 0.25, 0.5), SampleRate: 22050})
	require.NoError(t, err)
	dec := NewDecoder("")

	ctx := WithDecodeCache(t.Context())
	first, err := dec.DecodeAt(ctx, data, "wav", TargetSampleRate)
	require.NoError(t, err)
	second, err := dec.DecodeAt(ctx, data, ".WAV", TargetSampleRate)
	require.NoError(t, err)
	assert.Same(t, first, second)

	native, err := dec.Decode(ctx, data, "wav")
	require.NoError(t, err)
	again, err := dec.Decode(ctx, data, "wav")
	require.NoError(t, err)
	assert.Same(t, native, again)
	assert.Equal(t, 22050, native.SampleRate)

	// without a scope every call decodes afresh
	a, err := dec.DecodeAt(t.Context(), data, "wav", TargetSampleRate)
	require.NoError(t, err)
	b, err := dec.DecodeAt(t.Context(), data, "wav", TargetSampleRate)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestDecodeCacheSkipsFailures(t *testing.T) {
	t.Parallel()

	ctx := WithDecodeCache(t.Context())
	_, err := NewDecoder("").Decode(ctx, []byte("not audio"), "wav")
	require.Error(t, err)
	_, err = NewDecoder("").Decode(ctx, []byte("not audio"), "wav")
	require.Error(t, err)
}
