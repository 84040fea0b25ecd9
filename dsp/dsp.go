package dsp

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const ln10Over20 = 0.11512925464970228

// DBToLin converts decibels to a linear gain factor.
func DBToLin(db float64) float64 {
	if db == 0 {
		return 1
	}
	return math.Pow(10, db/20)
}

// DBToLinFast is the hot-path variant used per sample by the dynamics
// stages. It trades a small relative error for speed via a fast exp
// approximation.
func DBToLinFast(db float64) float64 {
	if db == 0 {
		return 1
	}
	return float64(approx.FastExp(float32(db * ln10Over20)))
}

// LinToDB converts a linear magnitude to decibels, floored at -120 dB so
// silence stays finite.
func LinToDB(lin float64) float64 {
	if lin < 1e-6 {
		return -120
	}
	return 20 * math.Log10(lin)
}

// SmoothingCoef derives the one-pole coefficient for a time constant in
// milliseconds at the given sample rate. A non-positive time constant
// yields 1, i.e. the smoother reaches its target in a single sample.
func SmoothingCoef(timeMs, sampleRate float64) float64 {
	if timeMs <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(timeMs*0.001*sampleRate))
}

// Smoother ramps a control value toward a target with a one-pole
// exponential, the explicit replacement for host-side parameter
// automation. Stepping it per sample keeps gain changes click-free.
type Smoother struct {
	value  float64
	target float64
	coef   float64
}

// NewSmoother returns a smoother initialized at value with the given time
// constant. The initial value is also the initial target, so a freshly
// built graph is settled, not ramping.
func NewSmoother(value, timeMs, sampleRate float64) *Smoother {
	return &Smoother{
		value:  value,
		target: value,
		coef:   SmoothingCoef(timeMs, sampleRate),
	}
}

// SetTarget starts a ramp toward v.
func (s *Smoother) SetTarget(v float64) { s.target = v }

// Snap jumps to v immediately, bypassing the ramp.
func (s *Smoother) Snap(v float64) {
	s.value = v
	s.target = v
}

// Next advances one sample and returns the current value.
func (s *Smoother) Next() float64 {
	if s.value != s.target {
		s.value += (s.target - s.value) * s.coef
		if math.Abs(s.value-s.target) < 1e-9 {
			s.value = s.target
		}
	}
	return s.value
}

// Value returns the current value without advancing.
func (s *Smoother) Value() float64 { return s.value }

// Target returns the ramp destination.
func (s *Smoother) Target() float64 { return s.target }

// Settled reports whether the ramp has completed.
func (s *Smoother) Settled() bool { return s.value == s.target }
