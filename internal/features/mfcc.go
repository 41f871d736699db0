package features

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// MFCCConfig holds the analysis parameters. The defaults reproduce
// librosa.feature.mfcc so boundaries trained offline stay valid.
type MFCCConfig struct {
	SampleRate      int
	NFFT            int
	HopLength       int
	NMels           int
	NumCoefficients int
	FMin            float64
	FMax            float64 // 0 means SampleRate/2
	TopDB           float64 // dynamic range kept by power_to_db, 0 disables clipping
}

// DefaultMFCCConfig returns the 16 kHz, 13-coefficient configuration.
func DefaultMFCCConfig() MFCCConfig {
	return MFCCConfig{
		SampleRate:      16000,
		NFFT:            2048,
		HopLength:       512,
		NMels:           128,
		NumCoefficients: NumCoefficients,
		FMin:            0,
		TopDB:           80,
	}
}

// amin floors power values before taking the logarithm.
const amin = 1e-10

// melBand is one triangular filter restricted to its non-zero bins.
type melBand struct {
	start   int
	weights []float64
}

// mfccPlan holds the precomputed window, filterbank and DCT basis.
// It is read-only after construction; FFT workspaces come from a pool.
type mfccPlan struct {
	cfg     MFCCConfig
	window  []float64
	bands   []melBand
	dct     [][]float64 // NumCoefficients x NMels
	fftPool sync.Pool
}

func newMFCCPlan(cfg MFCCConfig) *mfccPlan {
	if cfg.FMax <= 0 {
		cfg.FMax = float64(cfg.SampleRate) / 2
	}

	p := &mfccPlan{
		cfg:    cfg,
		window: hannWindow(cfg.NFFT),
		bands:  melFilterBank(cfg),
		dct:    dctBasis(cfg.NumCoefficients, cfg.NMels),
	}
	p.fftPool.New = func() any {
		return fourier.NewFFT(cfg.NFFT)
	}
	return p
}

// hannWindow returns the periodic Hann window used for spectral analysis.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

func melToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return mel * melFSp
}

// melFilterBank builds NMels Slaney-normalized triangular filters over the
// NFFT/2+1 FFT bins.
func melFilterBank(cfg MFCCConfig) []melBand {
	nBins := cfg.NFFT/2 + 1
	fftFreqs := make([]float64, nBins)
	for i := range fftFreqs {
		fftFreqs[i] = float64(i) * float64(cfg.SampleRate) / float64(cfg.NFFT)
	}

	melMin, melMax := hzToMel(cfg.FMin), hzToMel(cfg.FMax)
	melPoints := make([]float64, cfg.NMels+2)
	for i := range melPoints {
		mel := melMin + (melMax-melMin)*float64(i)/float64(cfg.NMels+1)
		melPoints[i] = melToHz(mel)
	}

	bands := make([]melBand, cfg.NMels)
	for m := range cfg.NMels {
		lower, center, upper := melPoints[m], melPoints[m+1], melPoints[m+2]
		enorm := 2.0 / (upper - lower)

		start, end := -1, -1
		row := make([]float64, nBins)
		for k, f := range fftFreqs {
			up := (f - lower) / (center - lower)
			down := (upper - f) / (upper - center)
			w := math.Max(0, math.Min(up, down))
			if w > 0 {
				if start < 0 {
					start = k
				}
				end = k + 1
				row[k] = w * enorm
			}
		}

		if start < 0 {
			// band narrower than one FFT bin
			bands[m] = melBand{}
			continue
		}
		bands[m] = melBand{start: start, weights: row[start:end]}
	}

	return bands
}

// dctBasis returns the orthonormal DCT-II basis truncated to nCoeff rows.
func dctBasis(nCoeff, n int) [][]float64 {
	basis := make([][]float64, nCoeff)
	for k := range basis {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[k] = row
	}
	return basis
}

// melSpectrogramDB frames the centered, zero-padded signal and returns the
// log-power mel spectrogram as frames x NMels.
func (p *mfccPlan) melSpectrogramDB(samples []float64) [][]float64 {
	cfg := p.cfg
	pad := cfg.NFFT / 2

	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)

	nFrames := 1 + (len(padded)-cfg.NFFT)/cfg.HopLength

	fft, _ := p.fftPool.Get().(*fourier.FFT)
	if fft == nil {
		fft = fourier.NewFFT(cfg.NFFT)
	}
	defer p.fftPool.Put(fft)

	frame := make([]float64, cfg.NFFT)
	coeffs := make([]complex128, cfg.NFFT/2+1)
	power := make([]float64, cfg.NFFT/2+1)

	melDB := make([][]float64, nFrames)
	maxDB := math.Inf(-1)

	for t := range nFrames {
		offset := t * cfg.HopLength
		for i := range frame {
			frame[i] = padded[offset+i] * p.window[i]
		}

		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = re*re + im*im
		}

		row := make([]float64, cfg.NMels)
		for m, band := range p.bands {
			var energy float64
			if len(band.weights) > 0 {
				energy = floats.Dot(band.weights, power[band.start:band.start+len(band.weights)])
			}
			db := 10 * math.Log10(math.Max(amin, energy))
			row[m] = db
			if db > maxDB {
				maxDB = db
			}
		}
		melDB[t] = row
	}

	if cfg.TopDB > 0 {
		floor := maxDB - cfg.TopDB
		for _, row := range melDB {
			for m, v := range row {
				if v < floor {
					row[m] = floor
				}
			}
		}
	}

	return melDB
}

// meanMFCC applies the DCT to every frame and averages each coefficient
// across frames.
func (p *mfccPlan) meanMFCC(melDB [][]float64) []float64 {
	mean := make([]float64, p.cfg.NumCoefficients)
	for _, row := range melDB {
		for k, basis := range p.dct {
			mean[k] += floats.Dot(basis, row)
		}
	}
	floats.Scale(1/float64(len(melDB)), mean)
	return mean
}
