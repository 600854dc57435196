package video

import (
	"context"
	"fmt"
	"time"
)

// FPS is the fixed output frame rate.
const FPS = 30

// PixelFormat is the raw frame layout exchanged with FFmpeg.
const PixelFormat = "rgb24"

// bytesPerPixel for PixelFormat.
const bytesPerPixel = 3

// FrameFormat describes raw camera frames.
type FrameFormat struct {
	Width  int
	Height int
}

// FrameSize returns the byte length of one frame.
func (f FrameFormat) FrameSize() int {
	return f.Width * f.Height * bytesPerPixel
}

func (f FrameFormat) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// TargetFrames returns floor(d * FPS).
func TargetFrames(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	whole := int64(d / time.Second)
	frac := int64(d % time.Second)
	return int(whole*FPS + frac*FPS/int64(time.Second))
}

// Camera yields raw frames of a fixed format.
type Camera interface {
	Format() FrameFormat
	// ReadFrame fills buf (FrameSize bytes) with the next frame.
	ReadFrame(buf []byte) error
	Close() error
}

// CameraOpener opens the camera.
type CameraOpener interface {
	Open(ctx context.Context) (Camera, error)
}

// Encoder writes frames to a video container.
type Encoder interface {
	WriteFrame(frame []byte) error
	// Close finalizes the container.
	Close() error
}

// EncoderOpener creates an encoder writing to path. It fails if path exists.
type EncoderOpener interface {
	Open(ctx context.Context, path string, format FrameFormat, fps int) (Encoder, error)
}
