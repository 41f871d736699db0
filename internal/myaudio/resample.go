package myaudio

import "fmt"

// ResampleAudio resamples audio from originalRate to targetRate using cubic
// (Catmull-Rom) interpolation. Edges are clamped to the first and last sample.
func ResampleAudio(audio []float64, originalRate, targetRate int) ([]float64, error) {
	if originalRate <= 0 || targetRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", originalRate, targetRate)
	}
	if originalRate == targetRate || len(audio) == 0 {
		return audio, nil
	}

	ratio := float64(targetRate) / float64(originalRate)
	newLength := int(float64(len(audio)) * ratio)
	resampled := make([]float64, newLength)

	last := len(audio) - 1
	at := func(i int) float64 {
		return audio[min(max(i, 0), last)]
	}

	for i := range newLength {
		origPos := float64(i) / ratio
		index := int(origPos)
		frac := origPos - float64(index)

		y0, y1, y2, y3 := at(index-1), at(index), at(index+1), at(index+2)
		mu2 := frac * frac
		a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
		a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
		a2 := -0.5*y0 + 0.5*y2

		resampled[i] = a0*frac*mu2 + a1*mu2 + a2*frac + y1
	}

	return resampled, nil
}
