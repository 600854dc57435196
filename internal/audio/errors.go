package audio

import (
	"errors"

	"github.com/alnah/clipcap/internal/capture"
)

// ErrDeviceUnavailable indicates the microphone could not be opened or
// produced no samples. No audio file is created.
var ErrDeviceUnavailable = capture.ErrDeviceUnavailable

// ErrCaptureInterrupted indicates a chunk read returned fewer samples than
// requested. Short reads are fatal.
var ErrCaptureInterrupted = capture.ErrCaptureInterrupted

// ErrInvalidDuration indicates a non-positive recording duration or one
// above capture.MaxDuration.
var ErrInvalidDuration = errors.New("recording duration must be positive and at most 10m")
