package googlespeech

import (
	"context"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/transcribe"
)

func response(texts ...string) *speechpb.RecognizeResponse {
	resp := &speechpb.RecognizeResponse{}
	for _, text := range texts {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text}},
		})
	}
	return resp
}

func request() transcribe.Request {
	return transcribe.Request{
		ClipID: "abc",
		PCM:    &myaudio.PCM{Samples: []float64{0.1, -0.1, 0.2}, SampleRate: 16000},
	}
}

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	req := buildRequest(request().PCM, Config{LanguageCode: "en-US", Model: "phone_call", UseEnhanced: true})
	cfg := req.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, cfg.GetEncoding())
	assert.Equal(t, int32(16000), cfg.GetSampleRateHertz())
	assert.Equal(t, "phone_call", cfg.GetModel())
	assert.True(t, cfg.GetUseEnhanced())
	assert.Len(t, req.GetAudio().GetContent(), 6)
}

func TestJoinTranscripts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", joinTranscripts(nil))
	assert.Equal(t, "help me there is a fire", joinTranscripts(response(" help me ", "", "there is a fire").GetResults()))
}

func TestRecognizeRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	r := newRecognizer(Config{MaxRetries: 2}, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		calls++
		if calls == 1 {
			return nil, status.Error(codes.Unavailable, "try again")
		}
		return response("send help"), nil
	})

	text, err := r.Recognize(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "send help", text)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "en-US", r.cfg.LanguageCode)
}

func TestRecognizeDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	r := newRecognizer(Config{MaxRetries: 3}, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		calls++
		return nil, status.Error(codes.InvalidArgument, "bad audio")
	})

	_, err := r.Recognize(context.Background(), request())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRecognizeEmptyAudio(t *testing.T) {
	t.Parallel()

	r := newRecognizer(Config{}, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		t.Fatal("backend must not be called for empty audio")
		return nil, nil
	})

	text, err := r.Recognize(context.Background(), transcribe.Request{})
	require.NoError(t, err)
	assert.Empty(t, text)
	require.NoError(t, r.Close())
}

func longRequest(seconds int) transcribe.Request {
	return transcribe.Request{
		ClipID: "long",
		PCM:    &myaudio.PCM{Samples: make([]float64, seconds*16000), SampleRate: 16000},
	}
}

func TestRecognizeLongClipUsesLongRunning(t *testing.T) {
	t.Parallel()

	r := newRecognizer(Config{MaxRetries: 1}, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		t.Fatal("synchronous recognize must not see clips over a minute")
		return nil, nil
	})
	calls := 0
	r.longRecognize = func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		calls++
		assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, req.GetConfig().GetEncoding())
		assert.Len(t, req.GetAudio().GetContent(), 90*16000*2)
		if calls == 1 {
			return nil, status.Error(codes.Unavailable, "try again")
		}
		return &speechpb.LongRunningRecognizeResponse{Results: response("fire", "on the third floor").GetResults()}, nil
	}

	text, err := r.Recognize(t.Context(), longRequest(90))
	require.NoError(t, err)
	assert.Equal(t, "fire on the third floor", text)
	assert.Equal(t, 2, calls)
}

func TestRecognizeLongClipWithoutLongRunning(t *testing.T) {
	t.Parallel()

	r := newRecognizer(Config{}, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		t.Fatal("synchronous recognize must not see clips over a minute")
		return nil, nil
	})

	_, err := r.Recognize(t.Context(), longRequest(61))
	require.ErrorIs(t, err, ErrAudioTooLong)
}

func TestRecognizeRejectsOversizedInlineAudio(t *testing.T) {
	t.Parallel()

	r := newRecognizer(Config{}, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		t.Fatal("oversized audio must not be sent")
		return nil, nil
	})
	r.longRecognize = func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		t.Fatal("oversized audio must not be sent")
		return nil, nil
	}

	// 16 kHz LINEAR16 passes the inline cap after about 5.5 minutes
	_, err := r.Recognize(t.Context(), longRequest(6*60))
	require.ErrorIs(t, err, ErrAudioTooLong)
}
