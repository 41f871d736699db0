package transcribe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/testutil"
)

func wavClip(t *testing.T, name string, amplitude float64) clip.AudioClip {
	t.Helper()
	c, err := clip.New(name, testutil.ToneWAV(t, 220, amplitude, 0.5))
	require.NoError(t, err)
	return c
}

// slowRecognizer blocks until the context ends.
type slowRecognizer struct{}

func (slowRecognizer) Name() string { return "slow" }

func (slowRecognizer) Recognize(ctx context.Context, _ Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"HELP Me", "help me"},
		{"  call\t911 \n now  ", "call 911 now"},
		{"I can’t breathe", "i can't breathe"},
		{"ＦＩＲＥ", "fire"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestTranscribeOK(t *testing.T) {
	t.Parallel()

	tr := New(myaudio.NewDecoder(""), NewStaticRecognizer(map[string]string{
		"call.wav": "Please HELP, there's a   fire",
	}))
	c := wavClip(t, "call.wav", 0.5)

	res := tr.Transcribe(context.Background(), c)
	require.True(t, res.OK(), "reason: %v", res.Reason)
	assert.Equal(t, c.ID, res.ClipID)
	assert.Equal(t, "please help, there's a fire", res.Text)
	assert.NoError(t, res.Reason)
	assert.Equal(t, "static", tr.Backend())
}

func TestTranscribeFailures(t *testing.T) {
	t.Parallel()

	rec := NewStaticRecognizer(map[string]string{"silent.wav": "help", "blank.wav": "   "})
	tr := New(myaudio.NewDecoder(""), rec)

	corrupt, err := clip.New("corrupt.wav", []byte("this is not a wav"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		clip   clip.AudioClip
		target error
	}{
		{"corrupt audio", corrupt, nil},
		{"silent audio", wavClip(t, "silent.wav", 0), ErrSilentAudio},
		{"unknown to backend", wavClip(t, "other.wav", 0.5), nil},
		{"backend returns blank", wavClip(t, "blank.wav", 0.5), ErrNoSpeech},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := tr.Transcribe(context.Background(), tt.clip)
			assert.Equal(t, StatusFailed, res.Status)
			assert.Empty(t, res.Text)
			require.Error(t, res.Reason)
			assert.True(t, errors.IsCategory(res.Reason, errors.CategoryTranscription))
			if tt.target != nil {
				assert.ErrorIs(t, res.Reason, tt.target)
			}
		})
	}
}

func TestTranscribeTimeout(t *testing.T) {
	t.Parallel()

	tr := New(myaudio.NewDecoder(""), slowRecognizer{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := tr.Transcribe(ctx, wavClip(t, "call.wav", 0.5))
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Reason, context.DeadlineExceeded)
	assert.True(t, errors.IsCategory(res.Reason, errors.CategoryTimeout))
}

func TestStaticRecognizerMatchesBaseName(t *testing.T) {
	t.Parallel()

	rec := NewStaticRecognizer(map[string]string{"calls/Fire.WAV": "fire"})
	text, err := rec.Recognize(context.Background(), Request{OriginName: "fire.wav"})
	require.NoError(t, err)
	assert.Equal(t, "fire", text)
}
