// Package suggest integrates an external settings-suggestion
// collaborator. The collaborator is optional and unreliable by
// contract; every failure path resolves to a fixed local profile so
// restoration never stalls on it.
package suggest

import (
	"context"
	"errors"
	"time"

	"github.com/cwbudde/algo-restore/restore"
)

// ErrService reports a collaborator failure (network, timeout, bad
// response). Callers of Resolve never see it; it exists for services
// to return and for logs.
var ErrService = errors.New("suggest: service error")

// DefaultTimeout bounds how long Resolve waits for a collaborator.
const DefaultTimeout = 5 * time.Second

// FallbackInsight is the explanation attached to the local profile.
const FallbackInsight = "Applied the standard vinyl cleanup profile; the suggestion service was unavailable."

// Suggestion is a partial settings override plus a human-readable
// explanation of why those values were chosen.
type Suggestion struct {
	Settings restore.Partial `json:"settings"`
	Insight  string          `json:"insight"`
}

// Service produces restoration suggestions for a track identifier.
// Implementations typically call out over the network and should honor
// ctx cancellation.
type Service interface {
	Suggest(ctx context.Context, trackID string) (Suggestion, error)
}

// Fallback returns the local profile used when no collaborator answer
// is available.
func Fallback() Suggestion {
	return Suggestion{
		Settings: restore.FallbackProfile(),
		Insight:  FallbackInsight,
	}
}

// Resolve queries svc for a suggestion and degrades to Fallback on any
// error, timeout, or missing service. It never fails; a suggestion is
// always returned within roughly the given timeout.
func Resolve(ctx context.Context, svc Service, trackID string, timeout time.Duration) Suggestion {
	if svc == nil {
		return Fallback()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		s   Suggestion
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		s, err := svc.Suggest(ctx, trackID)
		ch <- answer{s, err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return Fallback()
		}
		return a.s
	case <-ctx.Done():
		return Fallback()
	}
}
