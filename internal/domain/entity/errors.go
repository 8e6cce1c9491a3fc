package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for the digest domain.
//
// Infrastructure errors map onto these through errors.Is so that callers can
// classify a failure without knowing which transport produced it.
var (
	// ErrMalformedTarget indicates that a repository target is not in
	// "owner/name" form. It is detected before any network call.
	ErrMalformedTarget = errors.New("malformed repository target")

	// ErrTransient indicates a failure worth retrying: timeouts, 5xx
	// responses, rate limits.
	ErrTransient = errors.New("transient fetch failure")

	// ErrAuth indicates a missing or rejected credential. Never retried.
	ErrAuth = errors.New("authentication failed")

	// ErrQuery indicates a request the server refused as malformed or
	// unresolvable (for example an unknown repository). Never retried.
	ErrQuery = errors.New("query rejected")
)

// TargetError attaches the failing repository to an error.
type TargetError struct {
	Target string
	Err    error
}

// Error returns "target: cause".
func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TargetError) Unwrap() error {
	return e.Err
}
