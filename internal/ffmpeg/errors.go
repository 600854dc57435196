package ffmpeg

import "errors"

// ErrNotFound indicates the FFmpeg binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrTimeout is returned when FFmpeg does not exit within the shutdown timeout.
var ErrTimeout = errors.New("ffmpeg did not exit within timeout")

// ErrRunning is returned when an exit status is requested before the child exits.
var ErrRunning = errors.New("ffmpeg process still running")
