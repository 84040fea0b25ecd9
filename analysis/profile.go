package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-restore/restore"
)

// Band edges used by the track profiler.
const (
	midBandLoHz  = 300.0
	midBandHiHz  = 3000.0
	highBandLoHz = 6000.0
	highBandHiHz = 16000.0

	humSearchLoHz = 45.0
	humSearchHiHz = 75.0
)

// TrackProfile summarizes the restoration-relevant features of one
// track: broadband noise, spectral tilt and mains-hum prominence.
type TrackProfile struct {
	SampleRate     int
	NoiseFloorDB   float64
	MidBandDB      float64
	HighBandDB     float64
	HumFrequencyHz float64
	HumProminence  float64
}

// ProfileTrack analyzes the mono mixdown of buf.
func ProfileTrack(buf *restore.SampleBuffer) (TrackProfile, error) {
	if buf == nil || buf.Frames() == 0 {
		return TrackProfile{}, fmt.Errorf("analysis: empty buffer")
	}
	mono := make([]float64, buf.Frames())
	for c := 0; c < buf.Channels(); c++ {
		ch := buf.Channel(c)
		for i := range mono {
			mono[i] += ch[i]
		}
	}
	scale := 1 / float64(buf.Channels())
	for i := range mono {
		mono[i] *= scale
	}

	spec, err := Spectrum(mono, DefaultFFTSize)
	if err != nil {
		return TrackProfile{}, err
	}
	sr := buf.SampleRate()
	p := TrackProfile{
		SampleRate:   sr,
		NoiseFloorDB: NoiseFloorDB(spec),
		MidBandDB:    BandEnergyDB(spec, sr, DefaultFFTSize, midBandLoHz, midBandHiHz),
		HighBandDB:   BandEnergyDB(spec, sr, DefaultFFTSize, highBandLoHz, highBandHiHz),
	}
	p.HumFrequencyHz, p.HumProminence = humPeak(spec, sr)
	return p, nil
}

// humPeak finds the strongest bin in the mains-hum range and reports
// how far it sticks out above the surrounding low-frequency floor.
func humPeak(spec []float64, sampleRate int) (float64, float64) {
	binHz := float64(sampleRate) / float64(DefaultFFTSize)
	lo := int(humSearchLoHz / binHz)
	hi := int(humSearchHiHz/binHz) + 1
	if lo < 1 {
		lo = 1
	}
	if hi > len(spec) {
		hi = len(spec)
	}
	if lo >= hi {
		return 0, 0
	}
	peakBin := lo
	for k := lo + 1; k < hi; k++ {
		if spec[k] > spec[peakBin] {
			peakBin = k
		}
	}

	// Reference floor: mean of the 30..200 Hz neighborhood excluding
	// the peak's immediate bins.
	floorLo := int(30 / binHz)
	floorHi := int(200 / binHz)
	if floorLo < 1 {
		floorLo = 1
	}
	if floorHi > len(spec) {
		floorHi = len(spec)
	}
	sum, count := 0.0, 0
	for k := floorLo; k < floorHi; k++ {
		if k >= peakBin-1 && k <= peakBin+1 {
			continue
		}
		sum += spec[k]
		count++
	}
	if count == 0 {
		return float64(peakBin) * binHz, 0
	}
	prominence := linToDB(spec[peakBin]) - linToDB(sum/float64(count))
	return float64(peakBin) * binHz, prominence
}

// Suggest maps the profile onto partial settings and an explanation.
// Thresholds are deliberately conservative; the profiler nudges, it
// does not master.
func (p TrackProfile) Suggest() (restore.Partial, string) {
	var out restore.Partial
	var parts []string

	tilt := p.HighBandDB - p.MidBandDB
	if tilt > -25 {
		amount := clampRange((tilt+25)*4, 10, 80)
		out.HissSuppression = &amount
		parts = append(parts, fmt.Sprintf("High-frequency noise sits only %.1f dB below the mids; suggesting hiss suppression %.0f.", -tilt, amount))
	}

	if p.HumProminence > 12 {
		on := true
		freq := clampRange(math.Round(p.HumFrequencyHz), humSearchLoHz, humSearchHiHz)
		out.HumRemoval = &on
		out.HumFrequency = &freq
		parts = append(parts, fmt.Sprintf("Mains hum near %.0f Hz sticks out by %.1f dB; enabling the notch.", freq, p.HumProminence))
	}

	if len(parts) == 0 {
		return out, "Track looks clean; no automatic changes suggested."
	}
	return out, strings.Join(parts, " ")
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
