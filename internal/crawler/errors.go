package crawler

import "errors"

// Traversal errors.
//
// Design decision: We use package-level sentinel errors so callers can use
// errors.Is() for programmatic handling. Only ErrInvalidSeed is fatal to a
// run; every other failure is isolated to the page or link it concerns and
// accumulated in the result's error list.
var (
	// ErrInvalidSeed is returned when the start URL cannot be normalized.
	// The run aborts before any fetch.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrInvalidURL is returned by Normalize for input that cannot be
	// parsed as an absolute http(s) URL. Per-link normalization failures
	// are non-fatal; the link is dropped.
	ErrInvalidURL = errors.New("invalid URL")
)
