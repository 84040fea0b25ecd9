package suggest

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-restore/analysis"
	"github.com/cwbudde/algo-restore/restore"
)

// Analyzer is a local Service that derives suggestions from spectral
// analysis of the decoded track itself. It needs no network and is the
// default collaborator of the CLIs.
type Analyzer struct {
	buf *restore.SampleBuffer
}

// NewAnalyzer wraps a decoded track.
func NewAnalyzer(buf *restore.SampleBuffer) *Analyzer {
	return &Analyzer{buf: buf}
}

// Suggest profiles the track and maps the findings onto settings.
func (a *Analyzer) Suggest(ctx context.Context, trackID string) (Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	p, err := analysis.ProfileTrack(a.buf)
	if err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	partial, insight := p.Suggest()
	return Suggestion{Settings: partial, Insight: insight}, nil
}
