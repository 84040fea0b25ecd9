package restore

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp"
)

// paramSmoothingMs is the ramp time constant for every smoothed control
// value in the graph.
const paramSmoothingMs = 20.0

// Wet-chain tuning. These map the 0..100 restoration controls onto
// concrete filter and dynamics parameters.
const (
	hissFloorThresholdDB = -55.0
	hissFloorMaxRatio    = 3.0
	hissFloorAttackMs    = 5.0
	hissFloorReleaseMs   = 80.0
	hissShelfFreq        = 7500.0
	hissShelfMaxCutDB    = -18.0

	cracklePeakFreq    = 3800.0
	cracklePeakQ       = 0.9
	crackleMaxCutDB    = -12.0

	gateBaseThresholdDB = -65.0
	gateThresholdSlope  = 0.35
	gateRatio           = 2.0
	gateAttackMs        = 2.0
	gateReleaseMs       = 150.0

	bassShelfFreq = 150.0
	midPeakFreq   = 1000.0
	midPeakQ      = 0.8
	airShelfFreq  = 12000.0

	exciterFreq       = 9000.0
	exciterQ          = 1.0
	exciterMaxBoostDB = 9.0

	compThresholdDB = -24.0
	compMaxRatio    = 2.0
	compAttackMs    = 10.0
	compReleaseMs   = 120.0

	limiterRatio     = 20.0
	limiterAttackMs  = 1.0
	limiterReleaseMs = 60.0
)

// StageKind identifies one slot of the fixed wet chain.
type StageKind int

const (
	StageNoiseFloor StageKind = iota
	StageHissShelf
	StageCracklePeak
	StageHumNotch
	StageBassShelf
	StageMidPeak
	StageAirShelf
	StageExciter
	StageWarmth
	StageReverbGate
	StageCompressor
	StageStereo
)

// StageSpec is the declarative form of one wet-chain stage. Only the
// fields relevant to the kind are meaningful.
type StageSpec struct {
	Kind    StageKind
	Enabled bool

	Freq   float64
	Q      float64
	GainDB float64

	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64

	Amount float64

	Width float64
	Mono  bool
}

// Topology maps settings onto the wet chain. The list always has the
// same length and kind order regardless of the settings; controls at
// zero yield stages that are enabled-but-transparent or disabled, never
// a shorter chain. This keeps runtime updates free of graph rebuilds.
func Topology(s Settings) []StageSpec {
	s = s.Clamp()
	return []StageSpec{
		{
			Kind:        StageNoiseFloor,
			Enabled:     s.HissSuppression > 0,
			ThresholdDB: hissFloorThresholdDB,
			Ratio:       1 + s.HissSuppression*hissFloorMaxRatio/100,
			AttackMs:    hissFloorAttackMs,
			ReleaseMs:   hissFloorReleaseMs,
		},
		{
			Kind:    StageHissShelf,
			Enabled: true,
			Freq:    hissShelfFreq,
			Q:       defaultFilterQ,
			GainDB:  hissShelfMaxCutDB * s.HissSuppression / 100,
		},
		{
			Kind:    StageCracklePeak,
			Enabled: true,
			Freq:    cracklePeakFreq,
			Q:       cracklePeakQ,
			GainDB:  crackleMaxCutDB * s.CrackleSuppression / 100,
		},
		{
			Kind:    StageHumNotch,
			Enabled: s.HumRemoval,
			Freq:    s.HumFrequency,
			Q:       s.HumQ,
		},
		{
			Kind:    StageBassShelf,
			Enabled: true,
			Freq:    bassShelfFreq,
			Q:       defaultFilterQ,
			GainDB:  s.BassBoost,
		},
		{
			Kind:    StageMidPeak,
			Enabled: true,
			Freq:    midPeakFreq,
			Q:       midPeakQ,
			GainDB:  s.MidGain,
		},
		{
			Kind:    StageAirShelf,
			Enabled: true,
			Freq:    airShelfFreq,
			Q:       defaultFilterQ,
			GainDB:  s.AirGain,
		},
		{
			Kind:    StageExciter,
			Enabled: true,
			Freq:    exciterFreq,
			Q:       exciterQ,
			GainDB:  exciterMaxBoostDB * s.SpectralSynth / 100,
		},
		{
			Kind:    StageWarmth,
			Enabled: s.Warmth > 0,
			Amount:  s.Warmth,
		},
		{
			Kind:        StageReverbGate,
			Enabled:     s.DeReverb > 0,
			ThresholdDB: gateBaseThresholdDB + s.DeReverb*gateThresholdSlope,
			Ratio:       gateRatio,
			AttackMs:    gateAttackMs,
			ReleaseMs:   gateReleaseMs,
		},
		{
			Kind:        StageCompressor,
			Enabled:     s.TransientRecovery > 0,
			ThresholdDB: compThresholdDB,
			Ratio:       1 + s.TransientRecovery*compMaxRatio/100,
			AttackMs:    compAttackMs,
			ReleaseMs:   compReleaseMs,
		},
		{
			Kind:    StageStereo,
			Enabled: true,
			Width:   s.StereoWidth,
			Mono:    s.MonoToggle,
		},
	}
}

type graphStage interface {
	process(block [][]float64)
	reset()
}

// Graph is the full processing chain for one audio stream: the wet
// restoration chain, a dry/wet monitor crossfade, the safety limiter
// and the master trim. Process mutates blocks in place and is meant to
// be called from exactly one goroutine.
type Graph struct {
	sampleRate float64
	channels   int
	settings   Settings

	chain   []graphStage
	limiter *DynamicsStage

	dryGain *dsp.Smoother
	wetGain *dsp.Smoother
	master  *dsp.Smoother

	scratch [][]float64
}

// NewGraph builds a settled graph for the given stream geometry. The
// fixed corner frequencies require a sample rate above twice the air
// shelf corner.
func NewGraph(channels int, sampleRate float64, s Settings) (*Graph, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("restore: unsupported channel count %d", channels)
	}
	if sampleRate <= 2*airShelfFreq {
		return nil, fmt.Errorf("%w: sample rate %g too low for the fixed chain", ErrInvalidFilterParameter, sampleRate)
	}
	s = s.Clamp()
	g := &Graph{
		sampleRate: sampleRate,
		channels:   channels,
		settings:   s,
		dryGain:    dsp.NewSmoother(0, paramSmoothingMs, sampleRate),
		wetGain:    dsp.NewSmoother(1, paramSmoothingMs, sampleRate),
		master:     dsp.NewSmoother(dsp.DBToLin(s.MasterGain), paramSmoothingMs, sampleRate),
		limiter:    NewDynamicsStage(sampleRate, false, s.LimiterThreshold, limiterRatio, limiterAttackMs, limiterReleaseMs),
		scratch:    make([][]float64, channels),
	}
	for _, sp := range Topology(s) {
		st, err := g.buildStage(sp)
		if err != nil {
			return nil, err
		}
		g.chain = append(g.chain, st)
	}
	return g, nil
}

func (g *Graph) buildStage(sp StageSpec) (graphStage, error) {
	switch sp.Kind {
	case StageNoiseFloor, StageReverbGate:
		ratio := sp.Ratio
		if !sp.Enabled {
			ratio = 1
		}
		return NewDynamicsStage(g.sampleRate, true, sp.ThresholdDB, ratio, sp.AttackMs, sp.ReleaseMs), nil
	case StageCompressor:
		ratio := sp.Ratio
		if !sp.Enabled {
			ratio = 1
		}
		return NewDynamicsStage(g.sampleRate, false, sp.ThresholdDB, ratio, sp.AttackMs, sp.ReleaseMs), nil
	case StageBassShelf:
		return NewLowShelfStage(g.channels, sp.Freq, sp.GainDB, g.sampleRate)
	case StageHissShelf, StageAirShelf:
		return NewHighShelfStage(g.channels, sp.Freq, sp.GainDB, g.sampleRate)
	case StageCracklePeak, StageMidPeak, StageExciter:
		return NewPeakingStage(g.channels, sp.Freq, sp.Q, sp.GainDB, g.sampleRate)
	case StageHumNotch:
		fs, err := NewNotchStage(g.channels, sp.Freq, sp.Q, g.sampleRate)
		if err != nil {
			return nil, err
		}
		fs.setEnabledNow(sp.Enabled)
		return fs, nil
	case StageWarmth:
		return NewShaper(sp.Amount), nil
	case StageStereo:
		st := NewStereoStage(sp.Width, g.sampleRate)
		if sp.Mono {
			st.SetMono(true, sp.Width)
			st.reset()
		}
		return st, nil
	}
	return nil, fmt.Errorf("restore: unknown stage kind %d", sp.Kind)
}

// Update retargets the live graph to new settings. Stages crossfade or
// ramp toward the new values; the chain itself is never rebuilt.
func (g *Graph) Update(s Settings) error {
	s = s.Clamp()
	for i, sp := range Topology(s) {
		if err := g.applySpec(g.chain[i], sp); err != nil {
			return err
		}
	}
	g.limiter.SetThreshold(s.LimiterThreshold)
	g.master.SetTarget(dsp.DBToLin(s.MasterGain))
	g.settings = s
	return nil
}

func (g *Graph) applySpec(st graphStage, sp StageSpec) error {
	switch v := st.(type) {
	case *FilterStage:
		v.SetEnabled(sp.Enabled)
		q := sp.Q
		if q == 0 {
			q = defaultFilterQ
		}
		return v.SetParams(sp.Freq, q, sp.GainDB)
	case *DynamicsStage:
		if sp.Enabled {
			v.SetRatio(sp.Ratio)
		} else {
			v.SetRatio(1)
		}
		v.SetThreshold(sp.ThresholdDB)
		v.SetTimes(sp.AttackMs, sp.ReleaseMs)
	case *Shaper:
		if sp.Enabled {
			v.SetAmount(sp.Amount)
		} else {
			v.SetAmount(0)
		}
	case *StereoStage:
		v.SetMono(sp.Mono, sp.Width)
	}
	return nil
}

// Settings returns the settings last applied to the graph.
func (g *Graph) Settings() Settings { return g.settings }

// SetMonitor switches between the processed signal and the untouched
// input. The two paths crossfade, so toggling while audio runs is
// click-free.
func (g *Graph) SetMonitor(dry bool) {
	if dry {
		g.dryGain.SetTarget(1)
		g.wetGain.SetTarget(0)
	} else {
		g.dryGain.SetTarget(0)
		g.wetGain.SetTarget(1)
	}
}

// Process runs one block through the chain in place. All channel slices
// must have equal length.
func (g *Graph) Process(block [][]float64) {
	if len(block) == 0 || len(block[0]) == 0 {
		return
	}
	n := len(block[0])

	mixing := !(g.dryGain.Settled() && g.wetGain.Settled() &&
		g.dryGain.Value() == 0 && g.wetGain.Value() == 1)
	if mixing {
		for c := range block {
			if cap(g.scratch[c]) < n {
				g.scratch[c] = make([]float64, n)
			}
			g.scratch[c] = g.scratch[c][:n]
			copy(g.scratch[c], block[c])
		}
	}

	for _, st := range g.chain {
		st.process(block)
	}

	if mixing {
		for i := 0; i < n; i++ {
			dg := g.dryGain.Next()
			wg := g.wetGain.Next()
			for c := range block {
				block[c][i] = g.scratch[c][i]*dg + block[c][i]*wg
			}
		}
	}

	g.limiter.process(block)

	if !(g.master.Settled() && g.master.Value() == 1) {
		for i := 0; i < n; i++ {
			v := g.master.Next()
			for c := range block {
				block[c][i] *= v
			}
		}
	}
}

// GainReductionDB reports the limiter's current gain reduction in dB.
// Safe to call from any goroutine.
func (g *Graph) GainReductionDB() float64 {
	return g.limiter.GainReductionDB()
}

// Reset clears all filter and envelope state and completes any pending
// ramps, as when playback seeks or restarts.
func (g *Graph) Reset() {
	for _, st := range g.chain {
		st.reset()
	}
	g.limiter.reset()
	g.dryGain.Snap(g.dryGain.Target())
	g.wetGain.Snap(g.wetGain.Target())
	g.master.Snap(g.master.Target())
}
