package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when the engine cannot start because
	// credentials or settings are missing. Fetching stays disabled.
	ErrConfiguration = errors.New("configuration error")

	// ErrEnrichment marks an artwork resolution that failed before reaching
	// a definitive answer. It is logged and never surfaced to the UI.
	ErrEnrichment = errors.New("artwork enrichment failed")

	// ErrInvalidInterval is returned for refresh intervals outside
	// AllowedIntervals.
	ErrInvalidInterval = errors.New("refresh interval not allowed")
)

// ErrorKind classifies fetch failures.
type ErrorKind int

const (
	// KindTransient covers transport failures, non-success responses and
	// malformed payloads. The caller keeps its previous state.
	KindTransient ErrorKind = iota
)

// maxDiagnostic caps the diagnostic text carried by a FetchError.
const maxDiagnostic = 300

// FetchError is the only error a Fetcher returns.
type FetchError struct {
	Series     Series
	Kind       ErrorKind
	Diagnostic string // truncated description of the failure
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Series, e.Diagnostic)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying later may succeed.
func (e *FetchError) Transient() bool {
	return e.Kind == KindTransient
}

func newFetchError(series Series, err error) *FetchError {
	return &FetchError{
		Series:     series,
		Kind:       KindTransient,
		Diagnostic: truncate(err.Error(), maxDiagnostic),
		Err:        err,
	}
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
