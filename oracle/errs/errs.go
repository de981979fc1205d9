// Package errs defines the closed set of decoder error kinds shared across
// the message executors and the invocation driver.
package errs

import (
	"errors"
	"fmt"
)

// The four error kinds. Each is a distinguishable sentinel; callers compare
// with errors.Is, never by string.
var (
	// ErrTruncation marks a decode that read past the payload end. Aborts
	// the invocation and rolls back.
	ErrTruncation = errors.New("truncation")

	// ErrUnknownTag marks a preamble tag outside the registered executor
	// set. Non-fatal: terminates the current MessageBlock only.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrInvariantViolation marks an activeNetworkCount disagreement, an
	// out-of-range swap index, or encoding-version non-monotonicity. Aborts
	// and rolls back, recording errorMessage.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrEntityStoreFailure marks a failed EntityStore operation. Fatal:
	// the invocation is abandoned with no commit attempted.
	ErrEntityStoreFailure = errors.New("entity store failure")
)

// Kind returns the name of the error kind err is classified as (one of
// "truncation", "unknown_tag", "invariant_violation", "entity_store_failure";
// "" for a nil err and "unknown" for an err that matches no known kind), for
// use in Payload.ErrorMessage and metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTruncation):
		return "truncation"
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, ErrEntityStoreFailure):
		return "entity_store_failure"
	default:
		return "unknown"
	}
}

// Wrap attaches kind to msg via %w so errors.Is(Wrap(kind, msg), kind) holds.
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}
