package myaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth    = 16
	wavNumChannels = 1
	wavPCMFormat   = 1
)

// seekableBuffer is an in-memory io.WriteSeeker for the WAV encoder, which
// seeks back to patch chunk sizes on Close.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		s.buf = append(s.buf, make([]byte, end-int64(len(s.buf)))...)
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = s.pos + offset
	case io.SeekEnd:
		next = int64(len(s.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if next < 0 {
		return 0, errors.New("negative position")
	}
	s.pos = next
	return next, nil
}

// Bytes returns the written content.
func (s *seekableBuffer) Bytes() []byte {
	return s.buf
}

// EncodeWAV writes pcm as a 16-bit mono WAV file to w.
func EncodeWAV(w io.WriteSeeker, pcm *PCM) error {
	enc := wav.NewEncoder(w, pcm.SampleRate, wavBitDepth, wavNumChannels, wavPCMFormat)

	samples := ToInt16(pcm.Samples)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: pcm.SampleRate, NumChannels: wavNumChannels},
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	// Close finalizes the RIFF header
	return enc.Close()
}

// WAVBytes encodes pcm as an in-memory 16-bit mono WAV file.
func WAVBytes(pcm *PCM) ([]byte, error) {
	sb := &seekableBuffer{}
	if err := EncodeWAV(sb, pcm); err != nil {
		return nil, err
	}
	return sb.Bytes(), nil
}

// ToInt16 converts normalized samples to signed 16-bit PCM with clipping.
func ToInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(s * 32767)
		out[i] = int16(min(max(v, math.MinInt16), math.MaxInt16))
	}
	return out
}

// Linear16 packs samples as little-endian signed 16-bit PCM, the LINEAR16
// encoding expected by cloud speech APIs.
func Linear16(samples []float64) []byte {
	pcm := ToInt16(samples)
	raw := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	return raw
}
