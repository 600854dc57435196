package capture

import (
	"errors"
	"fmt"
)

// ErrDeviceUnavailable indicates a capture device could not be opened or
// produced no data before capture started.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// ErrCaptureInterrupted indicates a device stopped delivering data mid-capture.
var ErrCaptureInterrupted = errors.New("capture interrupted")

// deviceError wraps an error with actionable help text.
// Implements error and Unwrap for errors.Is() compatibility.
type deviceError struct {
	wrapped error
	help    string
}

func (e *deviceError) Error() string {
	if e.help == "" {
		return e.wrapped.Error()
	}
	return fmt.Sprintf("%v: %s", e.wrapped, e.help)
}

func (e *deviceError) Unwrap() error {
	return e.wrapped
}

// Unavailable returns an error matching ErrDeviceUnavailable and cause,
// with help appended to the message.
func Unavailable(cause error, help string) error {
	wrapped := ErrDeviceUnavailable
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrDeviceUnavailable, cause)
	}
	return &deviceError{wrapped: wrapped, help: help}
}
