package transcribe

import (
	"context"
	"os"
)

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestTranscriber creates an OpenAITranscriber with a mock audioTranscriber.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	return newOpenAITranscriber(client, opts...)
}

// WithRunner injects the whisper.cpp command runner.
func WithRunner(fn func(ctx context.Context, bin string, args []string) (string, error)) WhisperCppOption {
	return func(w *WhisperCppTranscriber) { w.run = fn }
}

// WithLookPath injects binary lookup.
func WithLookPath(fn func(string) (string, error)) WhisperCppOption {
	return func(w *WhisperCppTranscriber) { w.lookPath = fn }
}

// WithStat injects model file lookup.
func WithStat(fn func(string) (os.FileInfo, error)) WhisperCppOption {
	return func(w *WhisperCppTranscriber) { w.stat = fn }
}

// Function exports for unit testing internal logic.
var (
	ClassifyError       = classifyError
	BuildWhisperCppArgs = buildWhisperCppArgs
	JoinSegments        = joinSegments
)
