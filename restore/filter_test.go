package restore

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

func testNoise(t *testing.T, n int, seed int64) []float64 {
	t.Helper()
	g := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(44100)},
		signal.WithSeed(seed),
	)
	buf, err := g.WhiteNoise(0.5, n)
	if err != nil {
		t.Fatalf("white noise: %v", err)
	}
	return buf
}

func TestFilterStageRejectsBadFrequency(t *testing.T) {
	for _, freq := range []float64{0, -100, 22050, 30000, math.NaN()} {
		if _, err := NewPeakingStage(2, freq, 1, 3, 44100); !errors.Is(err, ErrInvalidFilterParameter) {
			t.Fatalf("freq %g: want ErrInvalidFilterParameter, got %v", freq, err)
		}
	}
	if _, err := NewNotchStage(2, 50, 30, 44100); err != nil {
		t.Fatalf("valid notch: %v", err)
	}
}

func TestFilterStageZeroGainShelfIsTransparent(t *testing.T) {
	stage, err := NewHighShelfStage(1, 7500, 0, 44100)
	if err != nil {
		t.Fatalf("new stage: %v", err)
	}
	in := testNoise(t, 2048, 1)
	out := append([]float64(nil), in...)
	stage.process([][]float64{out})
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed: %g -> %g", i, in[i], out[i])
		}
	}
}

func TestFilterStageRetuneCrossfadesWithoutJump(t *testing.T) {
	const sr = 44100
	stage, err := NewPeakingStage(1, 1000, 0.8, 0, sr)
	if err != nil {
		t.Fatalf("new stage: %v", err)
	}
	g := signal.NewGenerator(core.WithSampleRate(sr))
	sine, err := g.Sine(440, 0.5, sr/2)
	if err != nil {
		t.Fatalf("sine: %v", err)
	}

	// Warm up, then retune hard mid-stream and look for discontinuities
	// across the splice point.
	warm := append([]float64(nil), sine[:4096]...)
	stage.process([][]float64{warm})
	if err := stage.SetParams(1000, 0.8, 12); err != nil {
		t.Fatalf("set params: %v", err)
	}
	rest := append([]float64(nil), sine[4096:]...)
	stage.process([][]float64{rest})

	prev := warm[len(warm)-1]
	for i, v := range rest {
		if step := math.Abs(v - prev); step > 0.2 {
			t.Fatalf("discontinuity %g at sample %d after retune", step, i)
		}
		prev = v
	}
}

func TestFilterStageRetuneSameParamsIsNoop(t *testing.T) {
	stage, err := NewPeakingStage(2, 3800, 0.9, -6, 44100)
	if err != nil {
		t.Fatalf("new stage: %v", err)
	}
	if err := stage.SetParams(3800, 0.9, -6); err != nil {
		t.Fatalf("set params: %v", err)
	}
	if stage.old != nil {
		t.Fatal("identical params should not start a crossfade")
	}
}

func TestFilterStageDisableFadesToPassthrough(t *testing.T) {
	const sr = 44100
	stage, err := NewNotchStage(1, 50, 30, sr)
	if err != nil {
		t.Fatalf("new stage: %v", err)
	}
	settle := testNoise(t, 8192, 2)
	stage.process([][]float64{settle})

	stage.SetEnabled(false)
	flush := testNoise(t, 4096, 3)
	stage.process([][]float64{flush})

	in := testNoise(t, 1024, 4)
	out := append([]float64(nil), in...)
	stage.process([][]float64{out})
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("disabled stage altered sample %d: %g -> %g", i, in[i], out[i])
		}
	}
}
