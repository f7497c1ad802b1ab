// internal/providers/common/errors.go
package common

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingCredentials indicates a provider credential or endpoint was not
// configured. Fatal for the call, never retried.
var ErrMissingCredentials = errors.New("missing provider credentials")

// TransportError is a network-level or HTTP-level failure. Retryable
// reports whether another attempt could plausibly succeed (timeouts, 429,
// 5xx). A TransportError surfaced to a caller means retries were already
// exhausted inside the client.
type TransportError struct {
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transport error: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure class is worth another attempt.
func (e *TransportError) Retryable() bool {
	if e.Status == 0 {
		return true // network-level: timeout, DNS, connection reset
	}
	return e.Status == 429 || e.Status >= 500
}

// ParseError is a malformed-response failure. Never retried: the same call
// would return the same malformed payload.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err with the pipeline stage that was parsing.
func NewParseError(stage string, err error) *ParseError {
	return &ParseError{Stage: stage, Err: err}
}

// IsRetryable reports whether err is a transport failure that merits a
// retry. Parse and configuration errors are not.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}
