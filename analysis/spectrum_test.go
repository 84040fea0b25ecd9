package analysis

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

const testRate = 44100

func sineWith(t *testing.T, freq, amp float64, n int) []float64 {
	t.Helper()
	g := signal.NewGenerator(core.WithSampleRate(testRate))
	buf, err := g.Sine(freq, amp, n)
	if err != nil {
		t.Fatalf("sine: %v", err)
	}
	return buf
}

func noiseWith(t *testing.T, amp float64, n int, seed int64) []float64 {
	t.Helper()
	g := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(testRate)},
		signal.WithSeed(seed),
	)
	buf, err := g.WhiteNoise(amp, n)
	if err != nil {
		t.Fatalf("white noise: %v", err)
	}
	return buf
}

func mix(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}

func TestSpectrumPeaksAtToneFrequency(t *testing.T) {
	tone := sineWith(t, 1000, 0.5, testRate)
	spec, err := Spectrum(tone, DefaultFFTSize)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	peakBin := 0
	for k := range spec {
		if spec[k] > spec[peakBin] {
			peakBin = k
		}
	}
	binHz := float64(testRate) / DefaultFFTSize
	if got := float64(peakBin) * binHz; math.Abs(got-1000) > binHz {
		t.Fatalf("peak at %.1f Hz, want 1000", got)
	}
}

func TestSpectrumRejectsShortInput(t *testing.T) {
	if _, err := Spectrum(make([]float64, 100), DefaultFFTSize); err == nil {
		t.Fatal("want error for short input")
	}
}

func TestBandEnergyTracksToneLocation(t *testing.T) {
	tone := sineWith(t, 1000, 0.5, testRate)
	spec, err := Spectrum(tone, DefaultFFTSize)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	mid := BandEnergyDB(spec, testRate, DefaultFFTSize, 300, 3000)
	high := BandEnergyDB(spec, testRate, DefaultFFTSize, 6000, 16000)
	if mid-high < 40 {
		t.Fatalf("tone band only %g dB above empty band", mid-high)
	}
}

func TestNoiseFloorSeparatesCleanFromNoisy(t *testing.T) {
	clean := sineWith(t, 1000, 0.5, testRate)
	noisy := mix(clean, noiseWith(t, 0.05, testRate, 41))

	cleanSpec, err := Spectrum(clean, DefaultFFTSize)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	noisySpec, err := Spectrum(noisy, DefaultFFTSize)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	if d := NoiseFloorDB(noisySpec) - NoiseFloorDB(cleanSpec); d < 20 {
		t.Fatalf("noise floor difference %g dB, want > 20", d)
	}
}

func TestCompareIdenticalSignals(t *testing.T) {
	x := mix(sineWith(t, 440, 0.4, testRate), noiseWith(t, 0.02, testRate, 42))
	m := Compare(x, x, testRate)
	if m.Score > 0.01 {
		t.Fatalf("score %g for identical signals", m.Score)
	}
	if m.Similarity < 0.9 {
		t.Fatalf("similarity %g for identical signals", m.Similarity)
	}
}

func TestCompareSeparatesMismatchedSignals(t *testing.T) {
	a := sineWith(t, 440, 0.4, testRate)
	b := mix(sineWith(t, 660, 0.4, testRate), noiseWith(t, 0.1, testRate, 43))
	same := Compare(a, a, testRate)
	diff := Compare(a, b, testRate)
	if diff.Score <= same.Score {
		t.Fatalf("mismatch score %g not above identity score %g", diff.Score, same.Score)
	}
	if diff.Score < 0.1 {
		t.Fatalf("mismatch score %g too small", diff.Score)
	}
}
