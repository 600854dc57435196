package cli

import (
	"context"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/clipcap/internal/audio"
	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/config"
	"github.com/alnah/clipcap/internal/ffmpeg"
	"github.com/alnah/clipcap/internal/interrupt"
	"github.com/alnah/clipcap/internal/pipeline"
	"github.com/alnah/clipcap/internal/transcribe"
	"github.com/alnah/clipcap/internal/video"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have defaults via DefaultEnv(). Tests override specific
// fields using the With* options.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	FFmpegResolver      FFmpegResolver
	ConfigLoader        ConfigLoader
	TranscriberFactory  TranscriberFactory
	RecorderFactory     RecorderFactory
	DeviceListerFactory DeviceListerFactory
	Interrupts          InterruptNotifier
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads the merged file and environment configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// TranscriberFactory creates speech-recognition backends.
type TranscriberFactory interface {
	NewOpenAI(apiKey, model string) transcribe.Transcriber
	NewWhisperCpp(bin, model string) (transcribe.Transcriber, error)
}

// RecorderFactory creates the device recorders for one run.
type RecorderFactory interface {
	NewAudioRecorder(ffmpegPath, device string) (pipeline.AudioRecorder, error)
	NewVideoRecorder(ffmpegPath, device string, onProgress func(video.Progress)) (pipeline.VideoRecorder, error)
}

// DeviceLister enumerates capture devices.
type DeviceLister interface {
	Devices(ctx context.Context, kind capture.Kind) ([]capture.Device, error)
}

// DeviceListerFactory creates device listers.
type DeviceListerFactory interface {
	NewDeviceLister(ffmpegPath string) DeviceLister
}

// InterruptNotifier derives a context that is cancelled on Ctrl+C. The
// returned stop function releases the signal subscription.
type InterruptNotifier interface {
	Notify(parent context.Context, notice string) (context.Context, func())
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithRecorderFactory sets the recorder factory.
func WithRecorderFactory(f RecorderFactory) EnvOption {
	return func(e *Env) { e.RecorderFactory = f }
}

// WithDeviceListerFactory sets the device lister factory.
func WithDeviceListerFactory(f DeviceListerFactory) EnvOption {
	return func(e *Env) { e.DeviceListerFactory = f }
}

// WithInterrupts sets the interrupt notifier.
func WithInterrupts(n InterruptNotifier) EnvOption {
	return func(e *Env) { e.Interrupts = n }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:              os.Stdout,
		Stderr:              os.Stderr,
		Getenv:              os.Getenv,
		Now:                 time.Now,
		FFmpegResolver:      &defaultFFmpegResolver{},
		ConfigLoader:        &defaultConfigLoader{},
		TranscriberFactory:  &defaultTranscriberFactory{},
		RecorderFactory:     &defaultRecorderFactory{},
		DeviceListerFactory: &defaultDeviceListerFactory{},
		Interrupts:          &defaultInterruptNotifier{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewOpenAI(apiKey, model string) transcribe.Transcriber {
	return transcribe.NewOpenAITranscriber(openai.NewClient(apiKey), transcribe.WithModel(model))
}

func (defaultTranscriberFactory) NewWhisperCpp(bin, model string) (transcribe.Transcriber, error) {
	w := transcribe.NewWhisperCppTranscriber(bin, config.ExpandPath(model))
	if _, err := w.Check(); err != nil {
		return nil, err
	}
	return w, nil
}

type defaultRecorderFactory struct{}

func (defaultRecorderFactory) NewAudioRecorder(ffmpegPath, device string) (pipeline.AudioRecorder, error) {
	src, err := audio.NewFFmpegSource(ffmpegPath, device)
	if err != nil {
		return nil, err
	}
	return audio.NewRecorder(src), nil
}

func (defaultRecorderFactory) NewVideoRecorder(ffmpegPath, device string, onProgress func(video.Progress)) (pipeline.VideoRecorder, error) {
	camera, err := video.NewFFmpegCamera(ffmpegPath, device)
	if err != nil {
		return nil, err
	}
	encoder, err := video.NewFFmpegEncoder(ffmpegPath)
	if err != nil {
		return nil, err
	}
	return video.NewRecorder(camera, encoder, video.WithProgress(onProgress)), nil
}

type defaultDeviceListerFactory struct{}

func (defaultDeviceListerFactory) NewDeviceLister(ffmpegPath string) DeviceLister {
	return capture.NewLister(ffmpegPath)
}

type defaultInterruptNotifier struct{}

func (defaultInterruptNotifier) Notify(parent context.Context, notice string) (context.Context, func()) {
	h, ctx := interrupt.NewHandlerWithNotice(parent, notice)
	return ctx, h.Stop
}

// Compile-time interface verification.
var (
	_ FFmpegResolver      = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader        = (*defaultConfigLoader)(nil)
	_ TranscriberFactory  = (*defaultTranscriberFactory)(nil)
	_ RecorderFactory     = (*defaultRecorderFactory)(nil)
	_ DeviceListerFactory = (*defaultDeviceListerFactory)(nil)
	_ InterruptNotifier   = (*defaultInterruptNotifier)(nil)
	_ DeviceLister        = (*capture.Lister)(nil)
)
