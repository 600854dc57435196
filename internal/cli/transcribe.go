package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/clipcap/internal/config"
	"github.com/alnah/clipcap/internal/session"
	"github.com/alnah/clipcap/internal/transcribe"
)

// supportedFormats lists audio formats accepted by OpenAI's transcription API.
// Source: https://platform.openai.com/docs/guides/speech-to-text
var supportedFormats = map[string]bool{
	".ogg":  true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".webm": true,
}

// whisperCppFormats lists what whisper-cli reads without conversion.
var whisperCppFormats = map[string]bool{
	".wav": true,
}

// formatsList returns a sorted, comma-separated list for error messages.
func formatsList(formats map[string]bool) string {
	out := make([]string, 0, len(formats))
	for ext := range formats {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(out)
	return strings.Join(out, ", ")
}

const transcribeInterruptNotice = "\nCancelling transcription; no captions file will be written. Press Ctrl+C again to abort."

// TranscribeCmd creates the transcribe command, which re-runs the captions
// stage on an existing audio file.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		f      flagValues
		output string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Write captions for an existing audio file",
		Long: `Transcribe an audio file into a captions text file.

Useful to retry captions after a failed or interrupted run. For a file
named audio_<timestamp>.wav the default output is captions_<timestamp>.txt
next to it. An existing output file is never overwritten.

Supported formats (openai): ` + formatsList(supportedFormats) + `
Supported formats (whisper-cpp): ` + formatsList(whisperCppFormats),
		Example: `  clipcap transcribe audio_20261018_101500.wav
  clipcap transcribe memo.m4a -o memo.txt -l fr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := env.Interrupts.Notify(cmd.Context(), transcribeInterruptNotice)
			defer stop()

			return runTranscribe(ctx, env, args[0], output, f)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: captions_<timestamp>.txt next to the audio)")
	addCommonFlags(cmd, &f)

	return cmd
}

// runTranscribe executes the captions stage on inputPath.
// Validation order: file exists -> settings -> format -> output -> transcriber
func runTranscribe(ctx context.Context, env *Env, inputPath, output string, f flagValues) error {
	if _, err := os.Stat(inputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	s, err := loadSettings(env, f)
	if err != nil {
		return err
	}
	initLogging(env.Stderr, s.logLevel)

	formats := supportedFormats
	if s.provider == WhisperCppProvider {
		formats = whisperCppFormats
	}
	ext := strings.ToLower(filepath.Ext(inputPath))
	if !formats[ext] {
		return fmt.Errorf("unsupported format %q for %s (supported: %s): %w",
			ext, s.provider, formatsList(formats), ErrUnsupportedFormat)
	}

	output = config.ResolveOutputPath(output, "", session.ForAudio(inputPath).CaptionsPath)
	if _, err := os.Stat(output); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, output)
	}

	transcriber, err := newTranscriber(env, s)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Transcribing %s...\n", inputPath)
	text, err := transcriber.Transcribe(ctx, inputPath, transcribe.Options{Language: s.language, Prompt: s.prompt})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("transcription interrupted: %w", ctxErr)
	}
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if err := writeFileAtomic(output, text); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	if text != "" {
		_, _ = fmt.Fprintln(env.Stdout, text)
	}
	return nil
}
