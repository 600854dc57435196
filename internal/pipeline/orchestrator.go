// Package pipeline runs one capture session: audio and video recorded
// concurrently, joined, then the audio transcribed into a captions file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/clipcap/internal/audio"
	"github.com/alnah/clipcap/internal/logging"
	"github.com/alnah/clipcap/internal/session"
	"github.com/alnah/clipcap/internal/transcribe"
	"github.com/alnah/clipcap/internal/video"
)

// DefaultDuration is the clip length recorded when none is configured.
const DefaultDuration = 7 * time.Second

// AudioRecorder records microphone audio to a WAV file.
type AudioRecorder interface {
	Record(ctx context.Context, d time.Duration, path string) (audio.Result, error)
}

// VideoRecorder records camera frames to a video file.
type VideoRecorder interface {
	Record(ctx context.Context, d time.Duration, path string) (video.Result, error)
}

// Config holds per-run settings.
type Config struct {
	// OutputDir receives the artifacts. Empty means the working directory.
	OutputDir string

	// Duration of both recordings. Zero means DefaultDuration.
	Duration time.Duration

	// Transcribe is passed to the transcriber unchanged.
	Transcribe transcribe.Options
}

// AudioOutcome is the audio stage result.
type AudioOutcome struct {
	Result audio.Result
	Err    error
}

// VideoOutcome is the video stage result.
type VideoOutcome struct {
	Result video.Result
	Err    error
}

// CaptionsOutcome is the captions stage result. Err is ErrSkipped when
// the audio stage failed.
type CaptionsOutcome struct {
	Text string
	Err  error
}

// Result reports every stage of a run.
type Result struct {
	Session  session.Session
	Audio    AudioOutcome
	Video    VideoOutcome
	Captions CaptionsOutcome
}

// Orchestrator sequences one capture run.
type Orchestrator struct {
	cfg         Config
	audio       AudioRecorder
	video       VideoRecorder
	transcriber transcribe.Transcriber
	now         func() time.Time
	reporter    *Reporter
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used to name the session.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithReporter sets the progress event sink.
func WithReporter(r *Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator.
func New(cfg Config, a AudioRecorder, v VideoRecorder, t transcribe.Transcriber, opts ...Option) *Orchestrator {
	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	o := &Orchestrator{
		cfg:         cfg,
		audio:       a,
		video:       v,
		transcriber: t,
		now:         time.Now,
		logger:      logging.L("pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run records audio and video concurrently, waits for both, then
// transcribes the audio if it was recorded. Capture ignores cancellation
// of ctx; if ctx is done once capture ends, transcription is not attempted
// and the captions stage reports ctx.Err(). The returned error joins every failed
// stage as a *StageError. A non-nil error with a zero Result means the
// run could not start.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if err := os.MkdirAll(o.cfg.OutputDir, 0o750); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	res := Result{Session: session.New(o.now(), o.cfg.OutputDir, nil)}
	log := o.logger.With(logging.KeySession, res.Session.Token)
	log.Info("session started", "duration", o.cfg.Duration, "dir", o.cfg.OutputDir)

	o.capture(context.WithoutCancel(ctx), &res, log)

	switch {
	case res.Audio.Err != nil:
		res.Captions.Err = ErrSkipped
		log.Info("captions skipped", logging.KeyError, res.Audio.Err)
	case ctx.Err() != nil:
		// Interrupted during capture: artifacts are kept, captions are not run.
		res.Captions.Err = ctx.Err()
	default:
		o.reporter.Emit(Event{Stage: StageCaptions, Kind: EventStarted})
		res.Captions.Text, res.Captions.Err = o.captions(ctx, res.Session, log)
		o.reporter.Emit(Event{Stage: StageCaptions, Kind: EventFinished, Err: res.Captions.Err})
	}

	return res, stageErrors(res)
}

// capture runs both recorders and waits for both. Neither failure cancels
// the other.
func (o *Orchestrator) capture(ctx context.Context, res *Result, log *slog.Logger) {
	var g errgroup.Group

	g.Go(func() error {
		o.reporter.Emit(Event{Stage: StageAudio, Kind: EventStarted})
		started := time.Now()
		res.Audio.Result, res.Audio.Err = o.audio.Record(ctx, o.cfg.Duration, res.Session.AudioPath)
		log.Debug("audio stage done",
			"samples", res.Audio.Result.Samples,
			logging.KeyDurationMs, time.Since(started).Milliseconds(),
			logging.KeyError, res.Audio.Err)
		o.reporter.Emit(Event{Stage: StageAudio, Kind: EventFinished, Err: res.Audio.Err})
		return res.Audio.Err
	})

	g.Go(func() error {
		o.reporter.Emit(Event{Stage: StageVideo, Kind: EventStarted})
		started := time.Now()
		res.Video.Result, res.Video.Err = o.video.Record(ctx, o.cfg.Duration, res.Session.VideoPath)
		log.Debug("video stage done",
			"frames", res.Video.Result.Frames,
			"target", res.Video.Result.Target,
			"outcome", res.Video.Result.Outcome.String(),
			logging.KeyDurationMs, time.Since(started).Milliseconds(),
			logging.KeyError, res.Video.Err)
		o.reporter.Emit(Event{Stage: StageVideo, Kind: EventFinished, Err: res.Video.Err})
		return res.Video.Err
	})

	// Per-stage errors are kept in res; Wait only joins.
	_ = g.Wait()
}

// captions transcribes the audio artifact and writes the trimmed text.
func (o *Orchestrator) captions(ctx context.Context, s session.Session, log *slog.Logger) (string, error) {
	text, err := o.transcriber.Transcribe(ctx, s.AudioPath, o.cfg.Transcribe)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	text = strings.TrimSpace(text)
	if err := WriteCaptions(s.CaptionsPath, text); err != nil {
		return text, err
	}
	log.Debug("captions written", logging.KeyPath, s.CaptionsPath, "chars", len(text))
	return text, nil
}

// WriteCaptions writes text as UTF-8 to a new file at path. Empty text
// still creates the file. An existing file is never overwritten.
func WriteCaptions(path, text string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G302 G304 -- user-facing artifact
	if err != nil {
		return fmt.Errorf("create captions file: %w", err)
	}
	_, werr := f.WriteString(text)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write captions file: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close captions file: %w", cerr)
	}
	return nil
}

// stageErrors joins failed stages. A skipped captions stage is a
// consequence of the audio failure and is not reported twice.
func stageErrors(res Result) error {
	var errs []error
	if res.Audio.Err != nil {
		errs = append(errs, &StageError{Stage: StageAudio, Err: res.Audio.Err})
	}
	if res.Video.Err != nil {
		errs = append(errs, &StageError{Stage: StageVideo, Err: res.Video.Err})
	}
	if res.Captions.Err != nil && !errors.Is(res.Captions.Err, ErrSkipped) {
		errs = append(errs, &StageError{Stage: StageCaptions, Err: res.Captions.Err})
	}
	return errors.Join(errs...)
}
