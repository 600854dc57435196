// Package transcribe turns a recorded WAV file into caption text using a
// speech-recognition backend: the OpenAI transcription API or a local
// whisper.cpp binary.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/clipcap/internal/apierr"
	"github.com/alnah/clipcap/internal/lang"
	"github.com/alnah/clipcap/internal/logging"
)

// DefaultModel is the OpenAI model used when none is configured.
const DefaultModel = openai.Whisper1

// Default retry configuration.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Options configures transcription behavior.
type Options struct {
	// Language hints the spoken language. Zero value means auto-detect.
	Language lang.Language

	// Prompt provides context such as vocabulary or spelling of names.
	Prompt string
}

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts the audio file at audioPath to plain text.
	// Empty text is a valid result (silence).
	Transcribe(ctx context.Context, audioPath string, opts Options) (string, error)
}

// audioTranscriber is the subset of *openai.Client used here.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ Transcriber      = (*WhisperCppTranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio with the OpenAI API, retrying
// transient failures with exponential backoff.
type OpenAITranscriber struct {
	client     audioTranscriber
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel sets the transcription model.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) TranscriberOption {
	return func(t *OpenAITranscriber) { t.logger = l }
}

// NewOpenAITranscriber creates an OpenAITranscriber using client.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

func newOpenAITranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		model:      DefaultModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		logger:     logging.L("transcribe"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe sends audioPath to the API and returns the recognized text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		Language: opts.Language.BaseCode(), // API accepts ISO 639-1 base codes only
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			t.logger.Warn("retrying transcription",
				"attempt", attempt, "delay", delay, logging.KeyError, err)
		},
	}

	started := time.Now()
	text, err := apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		return resp.Text, nil
	}, apierr.IsRetryable)
	if err != nil {
		return "", err
	}

	t.logger.Debug("transcribed",
		logging.KeyPath, audioPath,
		"model", t.model,
		"chars", len(text),
		logging.KeyDurationMs, time.Since(started).Milliseconds())
	return text, nil
}

// classifyError maps go-openai errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.Error()
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return apierr.FromStatus(reqErr.HTTPStatusCode, msg)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
