package discord

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for definitive answers from the identity gateway. Anything
// not matching one of these is a transient condition from the caller's point
// of view: an upstream outage must never look like "user lacks access".
var (
	// ErrUnauthorized means the bearer token itself is invalid or expired (HTTP 401)
	ErrUnauthorized = errors.New("discord: unauthorized")

	// ErrForbidden means the token is valid but not allowed to read the
	// resource (HTTP 403). The access engine treats this as transient since it
	// usually indicates a missing OAuth scope, not a policy answer.
	ErrForbidden = errors.New("discord: forbidden")
)

// RateLimitError indicates the gateway returned HTTP 429
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discord: rate limited, retry after %s", e.RetryAfter)
}

// StatusError indicates an unexpected non-2xx status
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord: unexpected status %d", e.Status)
}

// NetworkError wraps a transport-level failure (DNS, connect, timeout)
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("discord: network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError wraps a 2xx response whose body could not be decoded
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("discord: malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTransient reports whether the error is retryable. Only an invalid
// credential is non-retryable: a bad token will not become a good token.
func IsTransient(err error) bool {
	return err != nil && !errors.Is(err, ErrUnauthorized)
}
