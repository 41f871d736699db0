package myaudio

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag; float and compressed WAVs use other tags.
const wavFormatPCM = 1

// wavReadFrames is how many frames are pulled per PCMBuffer call.
const wavReadFrames = 16384

func decodeWAV(r io.ReadSeeker) (*PCM, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file format")
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV audio format tag %d", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("invalid WAV channel count: %d", channels)
	}

	divisor, err := getAudioDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}
	// 8-bit WAV is unsigned
	offset := 0
	if decoder.BitDepth == 8 {
		offset = 128
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, wavReadFrames*channels),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: channels},
	}

	var interleaved []float64
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("error reading WAV samples: %w", err)
		}
		if n == 0 {
			break
		}
		for _, sample := range buf.Data[:n] {
			interleaved = append(interleaved, float64(sample-offset)/divisor)
		}
	}

	return &PCM{
		Samples:    downmix(interleaved, channels),
		SampleRate: int(decoder.SampleRate),
	}, nil
}
