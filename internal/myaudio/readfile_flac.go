package myaudio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/tphakala/flac"
)

// decodeFLAC spools data to a temporary file; the decoder reads from files.
func decodeFLAC(data []byte) (*PCM, error) {
	file, err := os.CreateTemp("", "harkveil-*.flac")
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC spool file: %w", err)
	}
	defer func() {
		_ = file.Close()
		_ = os.Remove(file.Name())
	}()

	if _, err := file.Write(data); err != nil {
		return nil, fmt.Errorf("failed to spool FLAC data: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind FLAC spool file: %w", err)
	}

	decoder, err := flac.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("invalid FLAC stream: %w", err)
	}

	channels := decoder.NChannels
	if channels < 1 {
		return nil, fmt.Errorf("invalid FLAC channel count: %d", channels)
	}

	bitDepth := decoder.BitsPerSample
	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return nil, err
	}
	bytesPerSample := bitDepth / 8

	interleaved := make([]float64, 0, int(decoder.TotalSamples)*channels)

	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("error reading FLAC frame: %w", err)
		}

		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			var sample int32
			switch bitDepth {
			case 8:
				sample = int32(int8(frame[i]))
			case 16:
				sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
			case 24:
				sample = int32(frame[i]) | int32(frame[i+1])<<8 | int32(int8(frame[i+2]))<<16
			case 32:
				sample = int32(binary.LittleEndian.Uint32(frame[i:]))
			}
			interleaved = append(interleaved, float64(sample)/divisor)
		}
	}

	return &PCM{
		Samples:    downmix(interleaved, channels),
		SampleRate: decoder.SampleRate,
	}, nil
}
