package restore

import "math"

const (
	shaperTableSize = 4096

	// warmthMaxDrive maps the 100-point warmth control onto the curve
	// coefficient k.
	warmthMaxDrive = 24.0
)

// Shaper applies an odd-symmetric saturation curve through a lookup
// table with linear interpolation. The curve maps the full scale onto
// itself, so it never expands peaks, and at zero warmth the stage is an
// exact bypass.
type Shaper struct {
	k     float64
	table []float64
}

// NewShaper builds a shaper for the given warmth amount in [0, 100].
func NewShaper(amount float64) *Shaper {
	s := &Shaper{k: -1}
	s.SetAmount(amount)
	return s
}

// SetAmount retargets the curve, rebuilding the table only when the
// drive actually changes.
func (s *Shaper) SetAmount(amount float64) {
	k := amount / 100 * warmthMaxDrive
	if k == s.k {
		return
	}
	s.k = k
	if k <= 0 {
		s.table = nil
		return
	}
	tbl := make([]float64, shaperTableSize+1)
	for i := range tbl {
		x := -1 + 2*float64(i)/shaperTableSize
		tbl[i] = shaperCurve(x, k)
	}
	s.table = tbl
}

func shaperCurve(x, k float64) float64 {
	return (math.Pi + k) * x / (math.Pi + k*math.Abs(x))
}

func (s *Shaper) process(block [][]float64) {
	if s.table == nil {
		return
	}
	for c := range block {
		buf := block[c]
		for i, x := range buf {
			buf[i] = s.lookup(x)
		}
	}
}

// reset is a no-op; the shaper carries no state between blocks.
func (s *Shaper) reset() {}

func (s *Shaper) lookup(x float64) float64 {
	// Out-of-table inputs fall back to the closed form; the curve is
	// defined and bounded for any finite x.
	if x <= -1 || x >= 1 || math.IsNaN(x) {
		return shaperCurve(x, s.k)
	}
	pos := (x + 1) * (shaperTableSize / 2)
	idx := int(pos)
	frac := pos - float64(idx)
	return s.table[idx] + (s.table[idx+1]-s.table[idx])*frac
}
