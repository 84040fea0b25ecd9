// Package degrade synthesizes vinyl-style degraded program material:
// a clean tone stack buried under hiss, mains hum, crackle and clicks
// with known parameters. The fit and demo tools use it to exercise the
// restoration chain against a ground truth.
package degrade

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"

	"github.com/cwbudde/algo-restore/restore"
)

// Config controls the synthesized degradation.
type Config struct {
	SampleRate int
	DurationS  float64
	Seed       int64

	ProgramFreqs []float64
	ProgramLevel float64

	HissLevel    float64
	HumFreq      float64
	HumLevel     float64
	CrackleRate  float64 // impulses per second
	CrackleLevel float64
	ClickRate    float64 // rarer, louder impulses per second
	ClickLevel   float64
}

// DefaultConfig is a worn but playable record.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		DurationS:    4,
		Seed:         1,
		ProgramFreqs: []float64{220, 440, 880, 1760},
		ProgramLevel: 0.4,
		HissLevel:    0.02,
		HumFreq:      50,
		HumLevel:     0.04,
		CrackleRate:  40,
		CrackleLevel: 0.12,
		ClickRate:    2,
		ClickLevel:   0.4,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.ProgramLevel < 0 || c.HissLevel < 0 || c.HumLevel < 0 ||
		c.CrackleLevel < 0 || c.ClickLevel < 0 {
		return fmt.Errorf("levels must be >= 0")
	}
	if c.CrackleRate < 0 || c.ClickRate < 0 {
		return fmt.Errorf("rates must be >= 0")
	}
	if c.HumLevel > 0 && (c.HumFreq <= 0 || c.HumFreq >= float64(c.SampleRate)/2) {
		return fmt.Errorf("hum frequency %g out of range", c.HumFreq)
	}
	return nil
}

// Generate synthesizes a stereo buffer according to cfg. The same
// config always yields the same samples.
func Generate(cfg Config) (*restore.SampleBuffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	frames := int(cfg.DurationS * float64(cfg.SampleRate))
	buf := restore.NewSampleBuffer(2, frames, cfg.SampleRate)

	program := make([]float64, frames)
	if cfg.ProgramLevel > 0 && len(cfg.ProgramFreqs) > 0 {
		g := signal.NewGenerator(core.WithSampleRate(float64(cfg.SampleRate)))
		level := cfg.ProgramLevel / float64(len(cfg.ProgramFreqs))
		for _, freq := range cfg.ProgramFreqs {
			tone, err := g.Sine(freq, level, frames)
			if err != nil {
				return nil, fmt.Errorf("program tone %g Hz: %w", freq, err)
			}
			for i := range program {
				program[i] += tone[i]
			}
		}
	}

	for c := 0; c < 2; c++ {
		copy(buf.Channel(c), program)
	}

	if cfg.HissLevel > 0 {
		for c := 0; c < 2; c++ {
			g := signal.NewGeneratorWithOptions(
				[]core.ProcessorOption{core.WithSampleRate(float64(cfg.SampleRate))},
				signal.WithSeed(cfg.Seed+int64(c)),
			)
			noise, err := g.WhiteNoise(cfg.HissLevel, frames)
			if err != nil {
				return nil, fmt.Errorf("hiss: %w", err)
			}
			ch := buf.Channel(c)
			for i := range ch {
				ch[i] += noise[i]
			}
		}
	}

	if cfg.HumLevel > 0 {
		w := 2 * math.Pi * cfg.HumFreq / float64(cfg.SampleRate)
		for i := 0; i < frames; i++ {
			// Mains hum with a touch of second harmonic, identical on
			// both channels like real ground-loop pickup.
			v := cfg.HumLevel * (math.Sin(w*float64(i)) + 0.3*math.Sin(2*w*float64(i)))
			buf.Channel(0)[i] += v
			buf.Channel(1)[i] += v
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	addImpulses(buf, rng, cfg.CrackleRate*cfg.DurationS, cfg.CrackleLevel, 0.0005, cfg.SampleRate)
	addImpulses(buf, rng, cfg.ClickRate*cfg.DurationS, cfg.ClickLevel, 0.002, cfg.SampleRate)

	return buf, nil
}

// addImpulses scatters decaying bursts across random positions and
// channels.
func addImpulses(buf *restore.SampleBuffer, rng *rand.Rand, count, level, decayS float64, sampleRate int) {
	if level <= 0 || count < 1 {
		return
	}
	frames := buf.Frames()
	tail := int(decayS * 5 * float64(sampleRate))
	if tail < 2 {
		tail = 2
	}
	for k := 0; k < int(count); k++ {
		pos := rng.Intn(frames)
		ch := buf.Channel(rng.Intn(buf.Channels()))
		amp := level * (0.5 + 0.5*rng.Float64())
		if rng.Intn(2) == 0 {
			amp = -amp
		}
		for i := 0; i < tail && pos+i < frames; i++ {
			t := float64(i) / float64(sampleRate)
			ch[pos+i] += amp * math.Exp(-t/decayS)
		}
	}
}
