package features

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/testutil"
)

func tone(freq float64, seconds float64) []float64 {
	return testutil.Tone(freq, 0.4, seconds)
}

func TestHzMelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, hz := range []float64{0, 250, 999, 1000, 2500, 8000} {
		assert.InDelta(t, hz, melToHz(hzToMel(hz)), 1e-6)
	}
	assert.InDelta(t, 15.0, hzToMel(1000), 1e-12)
}

func TestMelFilterBankShape(t *testing.T) {
	t.Parallel()

	cfg := DefaultMFCCConfig()
	cfg.FMax = 8000
	bands := melFilterBank(cfg)
	require.Len(t, bands, 128)

	nBins := cfg.NFFT/2 + 1
	for i, b := range bands {
		if len(b.weights) == 0 {
			continue
		}
		assert.LessOrEqual(t, b.start+len(b.weights), nBins, "band %d overflows", i)
		for _, w := range b.weights {
			assert.GreaterOrEqual(t, w, 0.0)
		}
	}
}

func TestDCTBasisOrthonormalRows(t *testing.T) {
	t.Parallel()

	basis := dctBasis(NumCoefficients, 128)
	for i := range basis {
		for j := range basis {
			var dot float64
			for n := range basis[i] {
				dot += basis[i][n] * basis[j][n]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, dot, 1e-9)
		}
	}
}

func TestFromPCM(t *testing.T) {
	t.Parallel()

	ex := NewExtractor(myaudio.NewDecoder(""))
	assert.Equal(t, NumCoefficients, ex.Dim())

	emb, err := ex.FromPCM(tone(440, 1))
	require.NoError(t, err)
	require.Len(t, emb, NumCoefficients)
	for _, v := range emb {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}

	again, err := ex.FromPCM(tone(440, 1))
	require.NoError(t, err)
	assert.Equal(t, emb, again)

	other, err := ex.FromPCM(tone(3000, 1))
	require.NoError(t, err)
	assert.NotEqual(t, emb, other)
}

func TestFromPCMShortAndSilent(t *testing.T) {
	t.Parallel()

	ex := NewExtractor(myaudio.NewDecoder(""))

	// shorter than one FFT window still yields a frame thanks to padding
	emb, err := ex.FromPCM(tone(440, 0.01))
	require.NoError(t, err)
	assert.Len(t, emb, NumCoefficients)

	silent, err := ex.FromPCM(make([]float64, 16000))
	require.NoError(t, err)
	assert.Len(t, silent, NumCoefficients)
}

func TestFromPCMRejectsDegenerateInput(t *testing.T) {
	t.Parallel()

	ex := NewExtractor(myaudio.NewDecoder(""))

	_, err := ex.FromPCM(nil)
	require.ErrorIs(t, err, ErrExtractionFailed)

	_, err = ex.FromPCM([]float64{0.1, math.NaN(), 0.2})
	require.ErrorIs(t, err, ErrExtractionFailed)

	_, err = ex.FromPCM([]float64{math.Inf(1)})
	require.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractFromWAV(t *testing.T) {
	t.Parallel()

	c, err := clip.New("call.wav", testutil.ToneWAV(t, 500, 0.4, 0.5))
	require.NoError(t, err)

	ex := NewExtractor(myaudio.NewDecoder(""))
	emb, err := ex.Extract(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, emb, NumCoefficients)
}

func TestExtractUndecodable(t *testing.T) {
	t.Parallel()

	c, err := clip.New("garbage.wav", []byte("not audio at all"))
	require.NoError(t, err)

	_, err = NewExtractor(myaudio.NewDecoder("")).Extract(context.Background(), c)
	require.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := clip.New("call.wav", []byte{1, 2, 3})
	require.NoError(t, err)

	_, err = NewExtractor(myaudio.NewDecoder("")).Extract(ctx, c)
	assert.True(t, errors.Is(err, context.Canceled))
}
