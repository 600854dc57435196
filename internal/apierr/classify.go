package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FromStatus maps an HTTP status and provider message to a sentinel.
// Unknown statuses produce an unclassified error carrying the status.
func FromStatus(status int, msg string) error {
	switch status {
	case http.StatusTooManyRequests:
		// Quota exhaustion shares 429 with rate limiting but needs user action.
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrServer)
	default:
		return fmt.Errorf("HTTP %d: %s", status, msg)
	}
}

// IsRetryable reports whether err is transient: rate limits, timeouts and
// server errors. Cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}
