package restore

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const (
	defaultFilterQ = 0.7071067811865476 // 1/sqrt(2)

	// retuneFadeMs is the crossfade window between an outgoing and an
	// incoming coefficient set when a filter is retuned mid-stream.
	retuneFadeMs = 20.0
)

type filterKind int

const (
	filterLowShelf filterKind = iota
	filterHighShelf
	filterPeaking
	filterNotch
)

// FilterStage is one second-order IIR stage of the wet chain: a shelf,
// peaking, or notch biquad with independent state per channel. Parameter
// changes never snap; the stage runs old and new coefficient sets in
// parallel and crossfades between them over retuneFadeMs.
type FilterStage struct {
	kind       filterKind
	sampleRate float64

	freq    float64
	q       float64
	gainDB  float64
	enabled bool

	cur     []*biquad.Section
	old     []*biquad.Section
	fadePos int
	fadeLen int
}

// NewLowShelfStage designs a low shelf at freq with gain in dB.
func NewLowShelfStage(channels int, freq, gainDB, sampleRate float64) (*FilterStage, error) {
	return newFilterStage(filterLowShelf, channels, freq, defaultFilterQ, gainDB, sampleRate)
}

// NewHighShelfStage designs a high shelf at freq with gain in dB.
func NewHighShelfStage(channels int, freq, gainDB, sampleRate float64) (*FilterStage, error) {
	return newFilterStage(filterHighShelf, channels, freq, defaultFilterQ, gainDB, sampleRate)
}

// NewPeakingStage designs a peaking EQ centered at freq.
func NewPeakingStage(channels int, freq, q, gainDB, sampleRate float64) (*FilterStage, error) {
	return newFilterStage(filterPeaking, channels, freq, q, gainDB, sampleRate)
}

// NewNotchStage designs a narrow band-reject filter centered at freq.
func NewNotchStage(channels int, freq, q, sampleRate float64) (*FilterStage, error) {
	return newFilterStage(filterNotch, channels, freq, q, 0, sampleRate)
}

func newFilterStage(kind filterKind, channels int, freq, q, gainDB, sampleRate float64) (*FilterStage, error) {
	if channels < 1 {
		channels = 1
	}
	if err := validateFilterFreq(freq, sampleRate); err != nil {
		return nil, err
	}
	s := &FilterStage{
		kind:       kind,
		sampleRate: sampleRate,
		freq:       freq,
		q:          safeQ(q),
		gainDB:     gainDB,
		enabled:    true,
		fadeLen:    int(retuneFadeMs * 0.001 * sampleRate),
	}
	coeffs := s.designCoeffs()
	s.cur = make([]*biquad.Section, channels)
	for c := range s.cur {
		s.cur[c] = biquad.NewSection(coeffs)
	}
	return s, nil
}

func validateFilterFreq(freq, sampleRate float64) error {
	nyquist := sampleRate / 2
	if !(freq > 0) || freq >= nyquist {
		return fmt.Errorf("%w: frequency %g Hz outside (0, %g)", ErrInvalidFilterParameter, freq, nyquist)
	}
	return nil
}

func safeQ(q float64) float64 {
	if !(q > 0) {
		return defaultFilterQ
	}
	return q
}

// SetParams retunes the stage. The previous coefficient set keeps running
// and is faded out over the crossfade window.
func (s *FilterStage) SetParams(freq, q, gainDB float64) error {
	if err := validateFilterFreq(freq, s.sampleRate); err != nil {
		return err
	}
	q = safeQ(q)
	if freq == s.freq && q == s.q && gainDB == s.gainDB {
		return nil
	}
	s.freq = freq
	s.q = q
	s.gainDB = gainDB
	s.beginFade()
	return nil
}

// SetEnabled toggles the stage. A disabled stage fades to an exact
// passthrough rather than dropping out of the chain, so the topology
// stays fixed.
func (s *FilterStage) SetEnabled(on bool) {
	if s.enabled == on {
		return
	}
	s.enabled = on
	s.beginFade()
}

// setEnabledNow switches the enable state without a crossfade. Only
// used while building a graph, before any audio has flowed.
func (s *FilterStage) setEnabledNow(on bool) {
	if s.enabled == on {
		return
	}
	s.enabled = on
	coeffs := s.designCoeffs()
	for c := range s.cur {
		s.cur[c] = biquad.NewSection(coeffs)
	}
	s.old = nil
	s.fadePos = 0
}

func (s *FilterStage) beginFade() {
	coeffs := s.designCoeffs()
	s.old = s.cur
	s.cur = make([]*biquad.Section, len(s.old))
	for c := range s.cur {
		s.cur[c] = biquad.NewSection(coeffs)
	}
	s.fadePos = 0
	if s.fadeLen <= 0 {
		s.old = nil
	}
}

func (s *FilterStage) designCoeffs() biquad.Coefficients {
	if !s.enabled {
		return biquad.Coefficients{B0: 1}
	}
	switch s.kind {
	case filterLowShelf:
		return design.LowShelf(s.freq, s.gainDB, s.q, s.sampleRate)
	case filterHighShelf:
		return design.HighShelf(s.freq, s.gainDB, s.q, s.sampleRate)
	case filterPeaking:
		return design.Peak(s.freq, s.gainDB, s.q, s.sampleRate)
	case filterNotch:
		return design.Notch(s.freq, s.q, s.sampleRate)
	}
	return biquad.Coefficients{B0: 1}
}

func (s *FilterStage) process(block [][]float64) {
	if len(block) == 0 || len(block[0]) == 0 {
		return
	}
	if s.old != nil {
		s.processFading(block)
		return
	}
	for c := range block {
		if c >= len(s.cur) {
			break
		}
		s.cur[c].ProcessBlock(block[c])
	}
}

func (s *FilterStage) processFading(block [][]float64) {
	n := len(block[0])
	for i := 0; i < n; i++ {
		w := float64(s.fadePos) / float64(s.fadeLen)
		for c := range block {
			if c >= len(s.cur) {
				break
			}
			x := block[c][i]
			yOld := s.old[c].ProcessSample(x)
			yNew := s.cur[c].ProcessSample(x)
			block[c][i] = yOld*(1-w) + yNew*w
		}
		s.fadePos++
		if s.fadePos >= s.fadeLen {
			s.old = nil
			for c := range block {
				if c >= len(s.cur) {
					break
				}
				s.cur[c].ProcessBlock(block[c][i+1:])
			}
			return
		}
	}
}

func (s *FilterStage) reset() {
	for _, sec := range s.cur {
		sec.Reset()
	}
	s.old = nil
	s.fadePos = 0
}
