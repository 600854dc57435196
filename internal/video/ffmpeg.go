package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/ffmpeg"
	"github.com/alnah/clipcap/internal/logging"
)

// Compile-time interface implementation checks.
var (
	_ CameraOpener  = (*FFmpegCamera)(nil)
	_ EncoderOpener = (*FFmpegEncoder)(nil)
	_ Camera        = (*ffmpegCameraStream)(nil)
	_ Encoder       = (*ffmpegEncoderStream)(nil)
)

const (
	// probeTimeout bounds the wait for the camera's stream banner.
	probeTimeout = 10 * time.Second

	// finalizeTimeout is the time to wait for FFmpeg to write the MP4 trailer.
	finalizeTimeout = 10 * time.Second
)

// process is the subset of *ffmpeg.Process the camera and encoder use.
type process interface {
	Stdout() io.Reader
	Stdin() io.Writer
	Stderr() string
	Exited() <-chan struct{}
	Kill() error
	Finish(timeout time.Duration) error
}

// startFunc launches FFmpeg.
type startFunc func(ctx context.Context, ffmpegPath string, args []string, opts ffmpeg.StartOptions) (process, error)

func startFFmpeg(ctx context.Context, ffmpegPath string, args []string, opts ffmpeg.StartOptions) (process, error) {
	p, err := ffmpeg.Start(ctx, ffmpegPath, args, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// defaultDevicer picks a device when none is configured.
type defaultDevicer interface {
	Default(ctx context.Context, kind capture.Kind) (string, error)
}

// ---------------------------------------------------------------------------
// FFmpegCamera
// ---------------------------------------------------------------------------

// FFmpegCamera reads the camera through an FFmpeg child emitting rgb24
// rawvideo on stdout. It supports Linux (v4l2), macOS (avfoundation) and
// Windows (dshow).
type FFmpegCamera struct {
	ffmpegPath string
	device     string // Empty string means platform default.
	goos       string
	start      startFunc
	devices    defaultDevicer
	probe      time.Duration
	logger     *slog.Logger
}

// CameraOption configures an FFmpegCamera.
type CameraOption func(*FFmpegCamera)

// WithCameraStart sets the process launcher.
func WithCameraStart(fn startFunc) CameraOption {
	return func(c *FFmpegCamera) { c.start = fn }
}

// WithDefaultDevicer sets the default-device lookup.
func WithDefaultDevicer(d defaultDevicer) CameraOption {
	return func(c *FFmpegCamera) { c.devices = d }
}

// WithGOOS sets the target OS.
func WithGOOS(goos string) CameraOption {
	return func(c *FFmpegCamera) { c.goos = goos }
}

// WithProbeTimeout bounds how long Open waits for frame dimensions.
func WithProbeTimeout(d time.Duration) CameraOption {
	return func(c *FFmpegCamera) { c.probe = d }
}

// WithCameraLogger sets the diagnostics logger.
func WithCameraLogger(l *slog.Logger) CameraOption {
	return func(c *FFmpegCamera) { c.logger = l }
}

// NewFFmpegCamera creates a camera opener.
// device can be empty for the platform default, or a specific device:
//   - Linux: "/dev/video0"
//   - macOS: "0" or "FaceTime HD Camera"
//   - Windows: "Integrated Camera"
func NewFFmpegCamera(ffmpegPath, device string, opts ...CameraOption) (*FFmpegCamera, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	c := &FFmpegCamera{
		ffmpegPath: ffmpegPath,
		device:     device,
		goos:       runtime.GOOS,
		start:      startFFmpeg,
		probe:      probeTimeout,
		logger:     logging.L("video"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.devices == nil {
		c.devices = capture.NewLister(ffmpegPath, capture.WithGOOS(c.goos))
	}
	return c, nil
}

// Open starts FFmpeg and waits until it announces the input stream so the
// frame dimensions are known before any frame is read.
func (c *FFmpegCamera) Open(ctx context.Context) (Camera, error) {
	device := c.device
	if device == "" {
		detected, err := c.devices.Default(ctx, capture.Video)
		if err != nil {
			return nil, err
		}
		device = detected
	}

	format := capture.InputFormat(c.goos, capture.Video, device)
	args := buildCameraArgs(format, capture.InputArg(format, capture.Video, device))
	c.logger.Debug("starting camera", "args", strings.Join(args, " "))

	dims := make(chan FrameFormat, 1)
	var once sync.Once
	proc, err := c.start(ctx, c.ffmpegPath, args, ffmpeg.StartOptions{
		Stdout: true,
		OnStderrLine: func(line string) {
			if f, ok := parseStreamFormat(line); ok {
				once.Do(func() { dims <- f })
			}
		},
	})
	if err != nil {
		return nil, capture.Unavailable(err, "")
	}

	select {
	case f := <-dims:
		return &ffmpegCameraStream{proc: proc, format: f}, nil
	case <-proc.Exited():
		// The banner may have been parsed just before exit.
		select {
		case f := <-dims:
			return &ffmpegCameraStream{proc: proc, format: f}, nil
		default:
		}
		_ = proc.Kill()
		return nil, capture.Unavailable(fmt.Errorf("ffmpeg exited: %s", strings.TrimSpace(proc.Stderr())), cameraHelp(format))
	case <-time.After(c.probe):
		_ = proc.Kill()
		return nil, capture.Unavailable(fmt.Errorf("no video stream after %v", c.probe), cameraHelp(format))
	}
}

// buildCameraArgs constructs FFmpeg arguments for raw frame capture.
// Info level is required: the stream banner carries the frame size.
func buildCameraArgs(inputFormat, inputArg string) []string {
	args := []string{"-hide_banner", "-loglevel", "info", "-nostdin", "-f", inputFormat}
	if inputFormat == capture.FormatAVFoundation {
		// avfoundation rejects its default 29.97 on most built-in cameras.
		args = append(args, "-framerate", strconv.Itoa(FPS))
	}
	return append(args,
		"-i", inputArg,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", PixelFormat,
		"pipe:1",
	)
}

func cameraHelp(format string) string {
	switch format {
	case capture.FormatAVFoundation:
		return "check camera permission in System Settings > Privacy & Security, or pick another device with --video-device"
	case capture.FormatDShow:
		return "check that no other application is using the camera, or pick another device with --video-device"
	default:
		return "check that the camera is connected and not in use, run 'clipcap devices' to list inputs"
	}
}

// streamSizePattern matches ", WxH" in a stream banner. The leading comma
// skips codec tags such as "(YUY2 / 0x32595559)".
var streamSizePattern = regexp.MustCompile(`,\s(\d+)x(\d+)`)

// parseStreamFormat extracts frame dimensions from a banner line such as:
//
//	Stream #0:0: Video: rawvideo (YUY2 / 0x32595559), yuyv422, 640x480, 147456 kb/s, 30 fps
func parseStreamFormat(line string) (FrameFormat, bool) {
	if !strings.Contains(line, "Stream #") || !strings.Contains(line, "Video:") {
		return FrameFormat{}, false
	}
	m := streamSizePattern.FindStringSubmatch(line)
	if m == nil {
		return FrameFormat{}, false
	}
	w, errW := strconv.Atoi(m[1])
	h, errH := strconv.Atoi(m[2])
	if errW != nil || errH != nil {
		return FrameFormat{}, false
	}
	return FrameFormat{Width: w, Height: h}, true
}

type ffmpegCameraStream struct {
	proc   process
	format FrameFormat
}

func (s *ffmpegCameraStream) Format() FrameFormat {
	return s.format
}

func (s *ffmpegCameraStream) ReadFrame(buf []byte) error {
	if _, err := io.ReadFull(s.proc.Stdout(), buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		if tail := strings.TrimSpace(s.proc.Stderr()); tail != "" {
			return fmt.Errorf("read frame: %w\nOutput: %s", err, lastLines(tail, 3))
		}
		return fmt.Errorf("read frame: %w", err)
	}
	return nil
}

func (s *ffmpegCameraStream) Close() error {
	return s.proc.Kill()
}

// lastLines returns the final n lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// FFmpegEncoder
// ---------------------------------------------------------------------------

// fileStater checks for existing output files.
type fileStater interface {
	Stat(name string) (os.FileInfo, error)
}

type osFileStater struct{}

func (osFileStater) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// FFmpegEncoder writes MPEG-4 Part 2 video (mp4v tag) through an FFmpeg
// child reading rawvideo on stdin.
type FFmpegEncoder struct {
	ffmpegPath string
	start      startFunc
	stat       fileStater
	logger     *slog.Logger
}

// EncoderOption configures an FFmpegEncoder.
type EncoderOption func(*FFmpegEncoder)

// WithEncoderStart sets the process launcher.
func WithEncoderStart(fn startFunc) EncoderOption {
	return func(e *FFmpegEncoder) { e.start = fn }
}

// WithFileStater sets the output existence check.
func WithFileStater(s fileStater) EncoderOption {
	return func(e *FFmpegEncoder) { e.stat = s }
}

// WithEncoderLogger sets the diagnostics logger.
func WithEncoderLogger(l *slog.Logger) EncoderOption {
	return func(e *FFmpegEncoder) { e.logger = l }
}

// NewFFmpegEncoder creates an encoder opener.
func NewFFmpegEncoder(ffmpegPath string, opts ...EncoderOption) (*FFmpegEncoder, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	e := &FFmpegEncoder{
		ffmpegPath: ffmpegPath,
		start:      startFFmpeg,
		stat:       osFileStater{},
		logger:     logging.L("video"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open starts the encoder. It refuses to replace an existing file.
func (e *FFmpegEncoder) Open(ctx context.Context, path string, format FrameFormat, fps int) (Encoder, error) {
	if _, err := e.stat.Stat(path); err == nil {
		return nil, fmt.Errorf("create video file %s: %w", path, os.ErrExist)
	}

	args := buildEncoderArgs(format, fps, path)
	e.logger.Debug("starting encoder", "args", strings.Join(args, " "))

	proc, err := e.start(ctx, e.ffmpegPath, args, ffmpeg.StartOptions{Stdin: true})
	if err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}
	return &ffmpegEncoderStream{proc: proc, frameSize: format.FrameSize()}, nil
}

// buildEncoderArgs constructs FFmpeg arguments for MP4 output.
func buildEncoderArgs(format FrameFormat, fps int, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-n", // Never overwrite.
		"-f", "rawvideo",
		"-pix_fmt", PixelFormat,
		"-s", format.String(),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-c:v", "mpeg4",
		"-tag:v", "mp4v",
		"-q:v", "5",
		"-pix_fmt", "yuv420p",
		output,
	}
}

type ffmpegEncoderStream struct {
	proc      process
	frameSize int
}

func (s *ffmpegEncoderStream) WriteFrame(frame []byte) error {
	if len(frame) != s.frameSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSizeMismatch, len(frame), s.frameSize)
	}
	if _, err := s.proc.Stdin().Write(frame); err != nil {
		return fmt.Errorf("encoder: %w\nOutput: %s", err, strings.TrimSpace(s.proc.Stderr()))
	}
	return nil
}

func (s *ffmpegEncoderStream) Close() error {
	return s.proc.Finish(finalizeTimeout)
}
