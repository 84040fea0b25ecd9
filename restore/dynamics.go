package restore

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-restore/dsp"
)

// defaultDownwardRangeDB caps how far a downward stage may attenuate.
// Without it a closed gate would mute program material completely when
// the envelope sits at the level floor.
const defaultDownwardRangeDB = 60.0

// DynamicsStage implements the gain computers of the chain. In upward
// mode it reduces gain above the threshold (compressor, limiter); in
// downward mode it reduces gain below it (expander, gate). Detection is
// channel-linked so the stereo image does not shift under asymmetric
// program material.
type DynamicsStage struct {
	sampleRate float64
	downward   bool

	thresholdDB float64
	ratio       float64
	rangeDB     float64

	attackCoef  float64
	releaseCoef float64

	env     float64
	grBits  atomic.Uint64
}

// NewDynamicsStage builds a stage with the given static curve. A ratio
// of 1 makes the stage bit-exact transparent regardless of threshold.
func NewDynamicsStage(sampleRate float64, downward bool, thresholdDB, ratio, attackMs, releaseMs float64) *DynamicsStage {
	d := &DynamicsStage{
		sampleRate:  sampleRate,
		downward:    downward,
		thresholdDB: thresholdDB,
		rangeDB:     defaultDownwardRangeDB,
	}
	d.SetRatio(ratio)
	d.SetTimes(attackMs, releaseMs)
	return d
}

// SetThreshold moves the knee, in dBFS.
func (d *DynamicsStage) SetThreshold(thresholdDB float64) {
	d.thresholdDB = thresholdDB
}

// SetRatio sets the slope. Values below 1 are clamped to 1.
func (d *DynamicsStage) SetRatio(ratio float64) {
	if !(ratio > 1) {
		ratio = 1
	}
	d.ratio = ratio
}

// SetTimes sets envelope ballistics in milliseconds. Non-positive times
// make the envelope track instantly.
func (d *DynamicsStage) SetTimes(attackMs, releaseMs float64) {
	d.attackCoef = envelopeCoef(attackMs, d.sampleRate)
	d.releaseCoef = envelopeCoef(releaseMs, d.sampleRate)
}

func envelopeCoef(timeMs, sampleRate float64) float64 {
	if timeMs <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(timeMs*0.001*sampleRate))
}

func (d *DynamicsStage) process(block [][]float64) {
	if len(block) == 0 {
		return
	}
	if d.ratio <= 1 {
		d.grBits.Store(0)
		return
	}
	slope := 1 - 1/d.ratio
	maxGR := 0.0
	n := len(block[0])
	for i := 0; i < n; i++ {
		peak := 0.0
		for c := range block {
			if a := math.Abs(block[c][i]); a > peak {
				peak = a
			}
		}
		coef := d.releaseCoef
		if peak > d.env {
			coef = d.attackCoef
		}
		d.env += (peak - d.env) * coef

		over := dsp.LinToDB(d.env) - d.thresholdDB
		var gDB float64
		switch {
		case d.downward && over < 0:
			gDB = slope * over
			if gDB < -d.rangeDB {
				gDB = -d.rangeDB
			}
		case !d.downward && over > 0:
			gDB = -slope * over
		default:
			continue
		}
		if -gDB > maxGR {
			maxGR = -gDB
		}
		g := dsp.DBToLinFast(gDB)
		for c := range block {
			block[c][i] *= g
		}
	}
	d.grBits.Store(math.Float64bits(maxGR))
}

// GainReductionDB reports the largest gain reduction of the most recent
// block, in dB. Safe to call from any goroutine.
func (d *DynamicsStage) GainReductionDB() float64 {
	return math.Float64frombits(d.grBits.Load())
}

func (d *DynamicsStage) reset() {
	d.env = 0
	d.grBits.Store(0)
}
