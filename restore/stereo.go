package restore

import "github.com/cwbudde/algo-restore/dsp"

// StereoStage rebalances the mid/side decomposition of a stereo pair.
// Width 100 leaves the image untouched, 0 collapses the sides, 200
// doubles them. Mono monitoring forces the side gain to zero so both
// outputs carry the identical mid signal. Gains ramp through smoothers
// and the stage is a bit-exact bypass once settled at unity.
type StereoStage struct {
	mid  *dsp.Smoother
	side *dsp.Smoother
	mono bool
}

// NewStereoStage builds the stage settled at the given width.
func NewStereoStage(width, sampleRate float64) *StereoStage {
	s := &StereoStage{
		mid:  dsp.NewSmoother(1, paramSmoothingMs, sampleRate),
		side: dsp.NewSmoother(widthToSideGain(width), paramSmoothingMs, sampleRate),
	}
	return s
}

func widthToSideGain(width float64) float64 {
	return clampf(width, 0, 200) / 100
}

// SetWidth retargets the stereo width in percent.
func (s *StereoStage) SetWidth(width float64) {
	if s.mono {
		return
	}
	s.side.SetTarget(widthToSideGain(width))
}

// SetMono toggles mono monitoring. Leaving mono restores the given
// width.
func (s *StereoStage) SetMono(mono bool, width float64) {
	s.mono = mono
	if mono {
		s.mid.SetTarget(1)
		s.side.SetTarget(0)
	} else {
		s.mid.SetTarget(1)
		s.side.SetTarget(widthToSideGain(width))
	}
}

func (s *StereoStage) process(block [][]float64) {
	if len(block) < 2 {
		return
	}
	if s.mid.Settled() && s.side.Settled() && s.mid.Value() == 1 && s.side.Value() == 1 {
		return
	}
	left, right := block[0], block[1]
	for i := range left {
		mg := s.mid.Next()
		sg := s.side.Next()
		m := (left[i] + right[i]) * 0.5 * mg
		sd := (left[i] - right[i]) * 0.5 * sg
		left[i] = m + sd
		right[i] = m - sd
	}
}

func (s *StereoStage) reset() {
	s.mid.Snap(s.mid.Target())
	s.side.Snap(s.side.Target())
}
