package scraping

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrNotFound covers absent requests, users and jobs. A job owned by
	// a different user is reported identically, so callers cannot probe
	// for the existence of ids they do not own.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState signals a decision on an already-decided request.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotAllowed signals a job for a website outside the caller's
	// allow-list.
	ErrNotAllowed = errors.New("website not allowed")

	// ErrUpstreamUnavailable marks mirror-store failures. It is swallowed
	// at the mirror boundary and surfaces only as degraded reads.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError reports a raw scrape record that cannot be normalized.
type ValidationError struct {
	MissingFields []string
	Reason        string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
	}
	return e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
