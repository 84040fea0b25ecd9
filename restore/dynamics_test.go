package restore

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

func testSine(t *testing.T, freq, amp float64, n int) []float64 {
	t.Helper()
	g := signal.NewGenerator(core.WithSampleRate(44100))
	buf, err := g.Sine(freq, amp, n)
	if err != nil {
		t.Fatalf("sine: %v", err)
	}
	return buf
}

func peakOf(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

func TestDynamicsRatioOneIsTransparent(t *testing.T) {
	d := NewDynamicsStage(44100, false, -24, 1, 10, 120)
	in := testSine(t, 1000, 0.9, 4096)
	out := append([]float64(nil), in...)
	d.process([][]float64{out})
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed at ratio 1: %g -> %g", i, in[i], out[i])
		}
	}
	if gr := d.GainReductionDB(); gr != 0 {
		t.Fatalf("gain reduction %g at ratio 1", gr)
	}
}

func TestDynamicsCompressorReducesLoudSignal(t *testing.T) {
	d := NewDynamicsStage(44100, false, -24, 4, 1, 120)
	in := testSine(t, 1000, 0.9, 44100)
	out := append([]float64(nil), in...)
	d.process([][]float64{out})

	// Skip the attack transient, then the tail must sit well below the
	// input level.
	if p := peakOf(out[8192:]); p >= 0.5 {
		t.Fatalf("compressed peak %g, want < 0.5", p)
	}
	if gr := d.GainReductionDB(); gr <= 3 {
		t.Fatalf("gain reduction %g dB, want > 3", gr)
	}
}

func TestDynamicsCompressorLeavesQuietSignal(t *testing.T) {
	d := NewDynamicsStage(44100, false, -24, 4, 1, 120)
	in := testSine(t, 1000, 0.01, 8192)
	out := append([]float64(nil), in...)
	d.process([][]float64{out})
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed below threshold: %g -> %g", i, in[i], out[i])
		}
	}
}

func TestDynamicsExpanderAttenuatesBelowThreshold(t *testing.T) {
	d := NewDynamicsStage(44100, true, -40, 3, 5, 80)
	quiet := testSine(t, 8000, 0.001, 44100)
	out := append([]float64(nil), quiet...)
	d.process([][]float64{out})
	inP := peakOf(quiet[8192:])
	outP := peakOf(out[8192:])
	if outP >= inP/3 {
		t.Fatalf("expander left %g of %g, want strong attenuation", outP, inP)
	}

	d.reset()
	loud := testSine(t, 1000, 0.8, 44100)
	out = append([]float64(nil), loud...)
	d.process([][]float64{out})
	if p := peakOf(out[8192:]); p < 0.7 {
		t.Fatalf("expander attenuated loud signal to %g", p)
	}
}

func TestDynamicsHigherRatioReducesMore(t *testing.T) {
	var tails []float64
	for _, ratio := range []float64{1.5, 2.5, 4} {
		d := NewDynamicsStage(44100, true, -40, ratio, 5, 80)
		in := testSine(t, 8000, 0.003, 44100)
		out := append([]float64(nil), in...)
		d.process([][]float64{out})
		tails = append(tails, peakOf(out[8192:]))
	}
	for i := 1; i < len(tails); i++ {
		if tails[i] >= tails[i-1] {
			t.Fatalf("residual did not fall with ratio: %v", tails)
		}
	}
}

func TestDynamicsLinkedDetection(t *testing.T) {
	d := NewDynamicsStage(44100, false, -24, 10, 1, 60)
	left := testSine(t, 1000, 0.9, 16384)
	right := make([]float64, len(left))
	outL := append([]float64(nil), left...)
	outR := append([]float64(nil), right...)
	d.process([][]float64{outL, outR})

	// A loud left channel must duck the (silent) right channel by the
	// same gain, which for silence means it stays silent, while the
	// left channel is clearly reduced.
	if p := peakOf(outR); p != 0 {
		t.Fatalf("silent channel became %g", p)
	}
	if p := peakOf(outL[8192:]); p >= 0.5 {
		t.Fatalf("linked compressor left peak %g", p)
	}
}
