// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harkveil/harkveil/internal/myaudio"
)

// Test timeouts.
const (
	ShortTestTimeout   = 1 * time.Second
	DefaultTestTimeout = 5 * time.Second
)

// SampleRate is the rate Tone and ToneWAV generate at.
const SampleRate = 16000

// Tone returns seconds of a sine at freq Hz with the given peak amplitude.
func Tone(freq, amplitude, seconds float64) []float64 {
	out := make([]float64, int(SampleRate*seconds))
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
	}
	return out
}

// ToneWAV encodes Tone as a 16-bit mono WAV file.
func ToneWAV(t testing.TB, freq, amplitude, seconds float64) []byte {
	t.Helper()
	data, err := myaudio.WAVBytes(&myaudio.PCM{Samples: Tone(freq, amplitude, seconds), SampleRate: SampleRate})
	require.NoError(t, err)
	return data
}

// WaitForChannel fails the test if ch does not close or receive within timeout.
func WaitForChannel(t testing.TB, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
}

// Done runs fn in a goroutine and returns a channel closed when it returns.
func Done(fn func()) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		fn()
	}()
	return ch
}
