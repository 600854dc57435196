// Package apierr provides shared error sentinels and retry infrastructure
// for speech-recognition backends. Backend-specific failures are classified
// into these sentinels at the adapter boundary; callers check them with
// errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out (retryable).
	ErrTimeout = errors.New("request timeout")

	// ErrServer indicates a 5xx response (retryable).
	ErrServer = errors.New("server error")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")
)
