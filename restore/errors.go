package restore

import "errors"

// ErrInvalidFilterParameter reports a filter design request outside the
// stable region (frequency at or beyond Nyquist, or non-positive). With
// clamped settings this indicates a programming error, not bad user input.
var ErrInvalidFilterParameter = errors.New("restore: invalid filter parameter")

// ErrRenderFailure reports an unexpected internal error during an offline
// render. No output file is written when it occurs.
var ErrRenderFailure = errors.New("restore: render failure")
