package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-restore/analysis"
	"github.com/cwbudde/algo-restore/degrade"
	"github.com/cwbudde/algo-restore/internal/wavio"
	"github.com/cwbudde/algo-restore/preset"
	"github.com/cwbudde/algo-restore/restore"
)

// knob is one settings dimension the optimizer may move, with its
// search range in real units.
type knob struct {
	name string
	lo   float64
	hi   float64
	set  func(*restore.Settings, float64)
}

var knobs = []knob{
	{"hiss_suppression", 0, 100, func(s *restore.Settings, v float64) { s.HissSuppression = v }},
	{"crackle_suppression", 0, 100, func(s *restore.Settings, v float64) { s.CrackleSuppression = v }},
	{"de_reverb", 0, 60, func(s *restore.Settings, v float64) { s.DeReverb = v }},
	{"transient_recovery", 0, 100, func(s *restore.Settings, v float64) { s.TransientRecovery = v }},
	{"warmth", 0, 60, func(s *restore.Settings, v float64) { s.Warmth = v }},
}

func main() {
	degradedPath := flag.String("degraded", "", "Degraded WAV path (empty fits against a synthetic demo pair)")
	referencePath := flag.String("reference", "", "Clean reference WAV path")
	variant := flag.String("variant", "ma", "Mayfly variant: ma, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	pop := flag.Int("pop", 12, "Mayfly population per sex")
	iters := flag.Int("iters", 20, "Mayfly iterations")
	seed := flag.Int64("seed", 1, "Random seed")
	outPreset := flag.String("output-preset", "fitted.json", "Where to write the fitted preset JSON")
	flag.Parse()

	if (*degradedPath == "") != (*referencePath == "") {
		fmt.Fprintln(os.Stderr, "Provide both -degraded and -reference, or neither for the synthetic pair")
		os.Exit(1)
	}

	degraded, reference, err := loadPair(*degradedPath, *referencePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading inputs: %v\n", err)
		os.Exit(1)
	}

	refMono := monoMix(reference)
	renderer := restore.NewRenderer()
	evaluate := func(pos []float64) (analysis.Metrics, error) {
		out, err := renderer.Render(degraded, candidateSettings(pos))
		if err != nil {
			return analysis.Metrics{}, err
		}
		return analysis.Compare(refMono, monoMix(out), degraded.SampleRate()), nil
	}

	baseline, err := evaluate(make([]float64, len(knobs)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Baseline evaluation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Baseline score=%.4f similarity=%.2f%%\n", baseline.Score, baseline.Similarity*100)

	cfg, err := newMayflyConfig(*variant, *pop, len(knobs), *iters)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg.Rand = rand.New(rand.NewSource(*seed))

	var (
		mu    sync.Mutex
		best  = make([]float64, len(knobs))
		bestM = baseline
		evals int
	)
	start := time.Now()
	cfg.ObjectiveFunc = func(pos []float64) float64 {
		m, err := evaluate(pos)
		mu.Lock()
		defer mu.Unlock()
		evals++
		if err != nil {
			return bestM.Score + 0.8
		}
		if m.Score < bestM.Score {
			bestM = m
			copy(best, pos)
			fmt.Printf("Improved eval=%d score=%.4f sim=%.2f%%\n", evals, m.Score, m.Similarity*100)
		}
		return m.Score
	}
	if err := runMayfly(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Optimization failed: %v\n", err)
		os.Exit(1)
	}

	fitted := candidateSettings(best)
	fmt.Printf("Done after %d evals in %.1f s: score=%.4f sim=%.2f%%\n",
		evals, time.Since(start).Seconds(), bestM.Score, bestM.Similarity*100)
	for i, k := range knobs {
		fmt.Printf("  %-20s %.1f\n", k.name, k.lo+clamp01(best[i])*(k.hi-k.lo))
	}

	if err := preset.SaveJSON(*outPreset, &preset.File{
		Name:     "fitted",
		Insight:  fmt.Sprintf("Fitted against %s (similarity %.1f%%)", referenceName(*referencePath), bestM.Similarity*100),
		Settings: fittedPartial(fitted),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing preset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *outPreset)
}

func loadPair(degradedPath, referencePath string) (*restore.SampleBuffer, *restore.SampleBuffer, error) {
	if degradedPath == "" {
		cfg := degrade.DefaultConfig()
		dirty, err := degrade.Generate(cfg)
		if err != nil {
			return nil, nil, err
		}
		cfg.HissLevel = 0
		cfg.HumLevel = 0
		cfg.CrackleLevel = 0
		cfg.ClickLevel = 0
		clean, err := degrade.Generate(cfg)
		if err != nil {
			return nil, nil, err
		}
		fmt.Println("No inputs given; fitting the synthetic demo pair")
		return dirty, clean, nil
	}
	dirty, err := wavio.ReadFile(degradedPath)
	if err != nil {
		return nil, nil, err
	}
	clean, err := wavio.ReadFile(referencePath)
	if err != nil {
		return nil, nil, err
	}
	clean, err = wavio.Resample(clean, dirty.SampleRate())
	if err != nil {
		return nil, nil, err
	}
	return dirty, clean, nil
}

func candidateSettings(pos []float64) restore.Settings {
	s := restore.Defaults()
	for i, k := range knobs {
		k.set(&s, k.lo+clamp01(pos[i])*(k.hi-k.lo))
	}
	return s
}

func fittedPartial(s restore.Settings) restore.Partial {
	return restore.Partial{
		HissSuppression:    &s.HissSuppression,
		CrackleSuppression: &s.CrackleSuppression,
		DeReverb:           &s.DeReverb,
		TransientRecovery:  &s.TransientRecovery,
		Warmth:             &s.Warmth,
	}
}

func monoMix(buf *restore.SampleBuffer) []float64 {
	out := make([]float64, buf.Frames())
	for c := 0; c < buf.Channels(); c++ {
		ch := buf.Channel(c)
		for i := range out {
			out[i] += ch[i]
		}
	}
	scale := 1 / float64(buf.Channels())
	for i := range out {
		out[i] *= scale
	}
	return out
}

func referenceName(path string) string {
	if path == "" {
		return "the synthetic demo pair"
	}
	return path
}

var mayflyVariants = map[string]func() *mayfly.Config{
	"ma":      mayfly.NewDefaultConfig,
	"desma":   mayfly.NewDESMAConfig,
	"olce":    mayfly.NewOLCEConfig,
	"eobbma":  mayfly.NewEOBBMAConfig,
	"gsasma":  mayfly.NewGSASMAConfig,
	"mpma":    mayfly.NewMPMAConfig,
	"aoblmoa": mayfly.NewAOBLMOAConfig,
}

// newMayflyConfig sizes a variant config for a normalized [0,1] search.
// NC must stay at twice the per-sex population and NM above zero, or
// the optimizer runs short of parents on small populations.
func newMayflyConfig(variant string, pop, dims, iters int) (*mayfly.Config, error) {
	newCfg, ok := mayflyVariants[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg := newCfg()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	_, err = mayfly.Optimize(cfg)
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
