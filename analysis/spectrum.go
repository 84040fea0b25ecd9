// Package analysis measures restoration-relevant features of audio:
// average spectra, band energies, noise floors and distances between a
// reference and a processed candidate.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"
)

// DefaultFFTSize is the analysis window used when callers pass 0.
const DefaultFFTSize = 4096

// Spectrum returns the average Hann-windowed magnitude spectrum of x,
// one value per bin up to Nyquist (fftSize/2 bins), averaged over
// half-overlapping frames.
func Spectrum(x []float64, fftSize int) ([]float64, error) {
	if fftSize <= 0 {
		fftSize = DefaultFFTSize
	}
	if len(x) < fftSize {
		return nil, fmt.Errorf("analysis: need at least %d samples, have %d", fftSize, len(x))
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("analysis: fft plan: %w", err)
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	nBins := fftSize / 2
	spec := make([]complex128, fftSize/2+1)
	buf := make([]float64, fftSize)
	avg := make([]float64, nBins)
	hop := fftSize / 2
	frames := 0
	for pos := 0; pos+fftSize <= len(x); pos += hop {
		for i := 0; i < fftSize; i++ {
			buf[i] = x[pos+i] * hann[i]
		}
		if err := plan.Forward(spec, buf); err != nil {
			return nil, fmt.Errorf("analysis: fft: %w", err)
		}
		for k := 0; k < nBins; k++ {
			avg[k] += cmplx.Abs(spec[k])
		}
		frames++
	}
	for k := range avg {
		avg[k] /= float64(frames)
	}
	return avg, nil
}

// BandEnergyDB returns the mean magnitude of the bins covering
// [loHz, hiHz), in dB. The DC bin is excluded.
func BandEnergyDB(spectrum []float64, sampleRate, fftSize int, loHz, hiHz float64) float64 {
	if fftSize <= 0 {
		fftSize = DefaultFFTSize
	}
	binHz := float64(sampleRate) / float64(fftSize)
	lo := int(loHz / binHz)
	hi := int(hiHz / binHz)
	if lo < 1 {
		lo = 1
	}
	if hi > len(spectrum) {
		hi = len(spectrum)
	}
	if lo >= hi {
		return linToDB(0)
	}
	sum := 0.0
	for k := lo; k < hi; k++ {
		sum += spectrum[k]
	}
	return linToDB(sum / float64(hi-lo))
}

// NoiseFloorDB estimates the broadband noise floor as the mean level of
// the quietest fifth of the bins.
func NoiseFloorDB(spectrum []float64) float64 {
	if len(spectrum) < 8 {
		return linToDB(0)
	}
	sorted := append([]float64(nil), spectrum[1:]...)
	sort.Float64s(sorted)
	n := len(sorted) / 5
	if n < 1 {
		n = 1
	}
	sum := 0.0
	for _, v := range sorted[:n] {
		sum += v
	}
	return linToDB(sum / float64(n))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20 * math.Log10(x)
}
