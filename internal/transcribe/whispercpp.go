package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/clipcap/internal/logging"
)

// DefaultWhisperCppBinary is the CLI name shipped by current whisper.cpp releases.
const DefaultWhisperCppBinary = "whisper-cli"

// runFunc runs a command and returns its stdout.
type runFunc func(ctx context.Context, bin string, args []string) (string, error)

// WhisperCppTranscriber runs a local whisper.cpp binary against a ggml model.
// Input must be 16 kHz WAV, which is what the audio recorder produces.
type WhisperCppTranscriber struct {
	bin      string
	model    string
	threads  int
	run      runFunc
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	logger   *slog.Logger
}

// WhisperCppOption configures a WhisperCppTranscriber.
type WhisperCppOption func(*WhisperCppTranscriber)

// WithThreads sets the number of decoding threads (0 keeps whisper.cpp's default).
func WithThreads(n int) WhisperCppOption {
	return func(w *WhisperCppTranscriber) {
		if n >= 0 {
			w.threads = n
		}
	}
}

// WithWhisperCppLogger sets the diagnostics logger.
func WithWhisperCppLogger(l *slog.Logger) WhisperCppOption {
	return func(w *WhisperCppTranscriber) { w.logger = l }
}

// NewWhisperCppTranscriber creates a transcriber for bin and model.
// An empty bin means DefaultWhisperCppBinary looked up in PATH.
func NewWhisperCppTranscriber(bin, model string, opts ...WhisperCppOption) *WhisperCppTranscriber {
	if bin == "" {
		bin = DefaultWhisperCppBinary
	}
	w := &WhisperCppTranscriber{
		bin:      bin,
		model:    model,
		run:      runStdout,
		lookPath: exec.LookPath,
		stat:     os.Stat,
		logger:   logging.L("transcribe"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Check verifies that the binary and model are present.
func (w *WhisperCppTranscriber) Check() (string, error) {
	path, err := w.lookPath(w.bin)
	if err != nil {
		return "", fmt.Errorf("%w: %q (install whisper.cpp or set whisper_cpp_bin)", ErrWhisperCppNotFound, w.bin)
	}
	if w.model == "" {
		return "", fmt.Errorf("%w: no model configured (set whisper_cpp_model)", ErrModelNotFound)
	}
	if _, err := w.stat(w.model); err != nil {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, w.model)
	}
	return path, nil
}

// Transcribe runs whisper.cpp on audioPath and returns the recognized text.
// Prompt is passed as the initial decoder prompt.
func (w *WhisperCppTranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	bin, err := w.Check()
	if err != nil {
		return "", err
	}

	args := buildWhisperCppArgs(w.model, audioPath, opts, w.threads)
	w.logger.Debug("running whisper.cpp", "bin", bin, "args", args)

	started := time.Now()
	out, err := w.run(ctx, bin, args)
	if err != nil {
		return "", fmt.Errorf("whisper.cpp: %w", err)
	}

	text := joinSegments(out)
	w.logger.Debug("transcribed",
		logging.KeyPath, audioPath,
		"chars", len(text),
		logging.KeyDurationMs, time.Since(started).Milliseconds())
	return text, nil
}

// buildWhisperCppArgs builds a no-timestamps, no-progress invocation so
// stdout carries only the recognized segments.
func buildWhisperCppArgs(model, audioPath string, opts Options, threads int) []string {
	language := opts.Language.BaseCode()
	if language == "" {
		language = "auto"
	}
	args := []string{"-m", model, "-f", audioPath, "-l", language, "-nt", "-np"}
	if threads > 0 {
		args = append(args, "-t", fmt.Sprint(threads))
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	return args
}

// joinSegments collapses whisper.cpp's one-segment-per-line output.
func joinSegments(out string) string {
	var parts []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func runStdout(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...) // #nosec G204 -- bin comes from config or PATH
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w\nOutput: %s", err, tail(stderr.String(), 2048))
		}
		return "", err
	}
	return stdout.String(), nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
