package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/logging"
)

// Outcome tells how a recording loop ended.
type Outcome int

const (
	// Failed means no frame loop ran to an end (device or encoder error).
	Failed Outcome = iota
	// Completed means the target frame count was written.
	Completed
	// DeviceStopped means the camera stopped delivering frames early.
	DeviceStopped
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case DeviceStopped:
		return "device stopped"
	default:
		return "failed"
	}
}

// Result describes a video recording.
type Result struct {
	Path    string
	Format  FrameFormat
	Frames  int
	Target  int
	Outcome Outcome
}

// Progress reports frames written so far.
type Progress struct {
	Frames int
	Target int
}

// Remaining returns the capture time left at FPS.
func (p Progress) Remaining() time.Duration {
	left := p.Target - p.Frames
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Second / FPS
}

// Recorder records a fixed number of camera frames to a video file.
type Recorder struct {
	camera     CameraOpener
	encoder    EncoderOpener
	logger     *slog.Logger
	onProgress func(Progress)
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithProgress sets a callback invoked once per second of video written.
// It runs on the capture goroutine and must not block.
func WithProgress(fn func(Progress)) RecorderOption {
	return func(r *Recorder) { r.onProgress = fn }
}

// NewRecorder creates a Recorder.
func NewRecorder(camera CameraOpener, encoder EncoderOpener, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		camera:  camera,
		encoder: encoder,
		logger:  logging.L("video"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record writes at most TargetFrames(duration) frames to path. Each frame is
// written before the next is read. Camera and encoder are always released;
// release errors are joined into the returned error.
func (r *Recorder) Record(ctx context.Context, duration time.Duration, path string) (res Result, err error) {
	res.Target = TargetFrames(duration)
	if duration <= 0 || duration > capture.MaxDuration {
		return res, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}

	cam, err := r.camera.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = capture.Unavailable(err, "")
		}
		return res, err
	}
	defer func() {
		if cerr := cam.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close camera: %w", cerr))
		}
	}()

	res.Format = cam.Format()
	if res.Format.Width <= 0 || res.Format.Height <= 0 {
		return res, capture.Unavailable(
			fmt.Errorf("camera reported %s frames", res.Format),
			"the camera may be in use by another application")
	}

	enc, err := r.encoder.Open(ctx, path, res.Format, FPS)
	if err != nil {
		return res, err
	}
	res.Path = path
	defer func() {
		if cerr := enc.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("finalize video: %w", cerr))
		}
	}()

	r.logger.Debug("recording video", logging.KeyPath, path, "format", res.Format.String(), "target", res.Target)

	frame := make([]byte, res.Format.FrameSize())
	for res.Frames < res.Target {
		if err := cam.ReadFrame(frame); err != nil {
			res.Outcome = DeviceStopped
			r.logger.Warn("camera stopped", "frames", res.Frames, "target", res.Target, logging.KeyError, err)
			return res, fmt.Errorf("%w after %d of %d frames: %w", ErrCaptureInterrupted, res.Frames, res.Target, err)
		}
		if err := enc.WriteFrame(frame); err != nil {
			return res, fmt.Errorf("write frame %d: %w", res.Frames+1, err)
		}
		res.Frames++
		if r.onProgress != nil && res.Frames%FPS == 0 {
			r.onProgress(Progress{Frames: res.Frames, Target: res.Target})
		}
	}

	res.Outcome = Completed
	return res, nil
}
