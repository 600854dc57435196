package video

import (
	"errors"

	"github.com/alnah/clipcap/internal/capture"
)

// ErrDeviceUnavailable indicates the camera could not be opened or reported
// unusable frame dimensions. No video file is created.
var ErrDeviceUnavailable = capture.ErrDeviceUnavailable

// ErrCaptureInterrupted indicates the camera stopped delivering frames
// before the target count was reached.
var ErrCaptureInterrupted = capture.ErrCaptureInterrupted

// ErrFrameSizeMismatch indicates a frame does not match the size the
// encoder was configured with.
var ErrFrameSizeMismatch = errors.New("frame size does not match encoder configuration")

// ErrInvalidDuration indicates a non-positive recording duration or one
// above capture.MaxDuration.
var ErrInvalidDuration = errors.New("recording duration must be positive and at most 10m")
