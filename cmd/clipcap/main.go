package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/clipcap/internal/cli"
	"github.com/alnah/clipcap/internal/config"
	"github.com/alnah/clipcap/internal/ffmpeg"
	"github.com/alnah/clipcap/internal/interrupt"
	"github.com/alnah/clipcap/internal/lang"
	"github.com/alnah/clipcap/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	env := cli.DefaultEnv()
	rootCmd := newRootCmd(env)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd builds the command tree. Running the root without a
// subcommand records a clip, like "clipcap run".
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clipcap",
		Short: "Record a short audio+video clip and caption it",
		Long: `clipcap records a short clip from the microphone and the camera at the
same time, then transcribes the audio into a captions text file.

Run without a command to record a 7 second clip with the default devices.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cli.BindRun(rootCmd, env)

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.DevicesCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Interrupted during capture: files are kept, captions were skipped.
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, cli.ErrAPIKeyMissing) ||
		errors.Is(err, transcribe.ErrWhisperCppNotFound) || errors.Is(err, transcribe.ErrModelNotFound) {
		return ExitSetup
	}

	if errors.Is(err, cli.ErrInvalidDuration) || errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, cli.ErrInvalidProvider) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, config.ErrInvalidValue) || errors.Is(err, config.ErrUnknownKey) ||
		errors.Is(err, config.ErrNotDirectory) || errors.Is(err, config.ErrNotWritable) {
		return ExitValidation
	}

	// Stage failures (device, encoder, transcription) land here.
	return ExitGeneral
}

// cobraUsageErrorPatterns are the prefixes Cobra gives its usage errors.
// Cobra returns them unwrapped, so a prefix match cannot catch an OS error
// such as EINVAL buried inside a stage failure.
var cobraUsageErrorPatterns = []string{
	"unknown command",        // Subcommand doesn't exist
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument \"",    // Invalid flag value type
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.HasPrefix(errMsg, pattern) {
			return true
		}
	}
	return false
}
