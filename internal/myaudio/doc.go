// Package myaudio decodes uploaded call recordings into mono float PCM.
//
// WAV and FLAC are decoded in-process; mp3, m4a and mp4 go through an
// ffmpeg subprocess that emits 16 kHz mono signed 16-bit samples. The
// package also resamples, encodes WAV and packs LINEAR16 payloads for
// speech backends.
package myaudio

import "github.com/harkveil/harkveil/internal/logger"

// TargetSampleRate is the rate every consumer works at.
const TargetSampleRate = 16000

// GetLogger returns the myaudio logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("audio")
}
