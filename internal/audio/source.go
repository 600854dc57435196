package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/ffmpeg"
	"github.com/alnah/clipcap/internal/logging"
)

// Compile-time interface implementation checks.
var (
	_ SourceOpener = (*FFmpegSource)(nil)
	_ Source       = (*ffmpegStream)(nil)
)

// SourceOpener opens the microphone.
type SourceOpener interface {
	// Open starts acquisition. It fails with ErrDeviceUnavailable if the
	// device cannot be opened or produces no samples.
	Open(ctx context.Context) (Source, error)
}

// Source delivers mono float samples at SampleRate.
type Source interface {
	// ReadChunk fills buf and returns the number of samples read. A count
	// below len(buf) comes with a non-nil error.
	ReadChunk(buf []float32) (int, error)
	Close() error
}

// process is the subset of *ffmpeg.Process the source uses.
type process interface {
	Stdout() io.Reader
	Stderr() string
	Kill() error
}

// startFunc launches FFmpeg.
type startFunc func(ctx context.Context, ffmpegPath string, args []string, opts ffmpeg.StartOptions) (process, error)

// defaultDevicer picks a device when none is configured.
type defaultDevicer interface {
	Default(ctx context.Context, kind capture.Kind) (string, error)
}

func startFFmpeg(ctx context.Context, ffmpegPath string, args []string, opts ffmpeg.StartOptions) (process, error) {
	p, err := ffmpeg.Start(ctx, ffmpegPath, args, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FFmpegSource reads the microphone through an FFmpeg child emitting
// 32-bit float little-endian samples on stdout.
// It supports macOS (avfoundation), Linux (alsa/pulse), and Windows (dshow).
type FFmpegSource struct {
	ffmpegPath string
	device     string // Empty string means platform default.
	goos       string
	start      startFunc
	devices    defaultDevicer
	logger     *slog.Logger
}

// SourceOption configures an FFmpegSource.
type SourceOption func(*FFmpegSource)

// WithStart sets the process launcher.
func WithStart(fn startFunc) SourceOption {
	return func(s *FFmpegSource) { s.start = fn }
}

// WithDefaultDevicer sets the default-device lookup.
func WithDefaultDevicer(d defaultDevicer) SourceOption {
	return func(s *FFmpegSource) { s.devices = d }
}

// WithGOOS sets the target OS.
func WithGOOS(goos string) SourceOption {
	return func(s *FFmpegSource) { s.goos = goos }
}

// WithSourceLogger sets the diagnostics logger.
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *FFmpegSource) { s.logger = l }
}

// NewFFmpegSource creates a microphone source.
// device can be empty for the platform default, or a specific device name:
//   - macOS: "0" or ":0"
//   - Linux: "default", "hw:0" or a PulseAudio source name
//   - Windows: "Microphone (Realtek High Definition Audio)"
func NewFFmpegSource(ffmpegPath, device string, opts ...SourceOption) (*FFmpegSource, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	s := &FFmpegSource{
		ffmpegPath: ffmpegPath,
		device:     device,
		goos:       runtime.GOOS,
		start:      startFFmpeg,
		logger:     logging.L("audio"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.devices == nil {
		s.devices = capture.NewLister(ffmpegPath, capture.WithGOOS(s.goos))
	}
	return s, nil
}

// Open starts FFmpeg and waits for the first chunk, so a missing or busy
// device is reported here rather than as an interrupted capture.
func (s *FFmpegSource) Open(ctx context.Context) (Source, error) {
	device := s.device
	if device == "" {
		detected, err := s.devices.Default(ctx, capture.Audio)
		if err != nil {
			return nil, err
		}
		device = detected
	}

	format := capture.InputFormat(s.goos, capture.Audio, device)
	args := buildSourceArgs(format, capture.InputArg(format, capture.Audio, device))
	s.logger.Debug("starting microphone", "args", strings.Join(args, " "))

	proc, err := s.start(ctx, s.ffmpegPath, args, ffmpeg.StartOptions{Stdout: true})
	if err != nil {
		return nil, capture.Unavailable(err, "")
	}

	stream := &ffmpegStream{proc: proc, raw: make([]byte, ChunkSize*4)}
	stream.primed = make([]float32, ChunkSize)
	n, err := stream.read(stream.primed)
	if n < ChunkSize {
		_ = proc.Kill()
		return nil, capture.Unavailable(processError(err, proc), deviceHelp(format))
	}
	return stream, nil
}

// buildSourceArgs constructs FFmpeg arguments for raw sample capture.
func buildSourceArgs(inputFormat, inputArg string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-f", inputFormat,
		"-i", inputArg,
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-f", "f32le",
		"pipe:1",
	}
}

func deviceHelp(format string) string {
	switch format {
	case capture.FormatAVFoundation:
		return "check microphone permission in System Settings > Privacy & Security, or pick another device with --audio-device"
	case capture.FormatDShow:
		return "check the microphone privacy settings, or pick another device with --audio-device"
	default:
		return "check that a microphone is connected and not in use, run 'clipcap devices' to list inputs"
	}
}

// processError attaches FFmpeg's diagnostics to a read error.
func processError(err error, proc process) error {
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	if tail := strings.TrimSpace(proc.Stderr()); tail != "" {
		return fmt.Errorf("%w\nOutput: %s", err, tail)
	}
	return err
}

// ffmpegStream decodes f32le samples from the FFmpeg pipe.
type ffmpegStream struct {
	proc   process
	raw    []byte
	primed []float32
}

func (s *ffmpegStream) ReadChunk(buf []float32) (int, error) {
	if s.primed != nil {
		n := copy(buf, s.primed)
		s.primed = nil
		if n == len(buf) {
			return n, nil
		}
		m, err := s.read(buf[n:])
		return n + m, err
	}
	n, err := s.read(buf)
	if err != nil {
		err = processError(err, s.proc)
	}
	return n, err
}

func (s *ffmpegStream) read(buf []float32) (int, error) {
	need := len(buf) * 4
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	raw := s.raw[:need]
	got, err := io.ReadFull(s.proc.Stdout(), raw)
	n := got / 4
	for i := 0; i < n; i++ {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func (s *ffmpegStream) Close() error {
	return s.proc.Kill()
}
