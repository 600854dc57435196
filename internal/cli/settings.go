package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/clipcap/internal/config"
	"github.com/alnah/clipcap/internal/lang"
	"github.com/alnah/clipcap/internal/logging"
	"github.com/alnah/clipcap/internal/pipeline"
	"github.com/alnah/clipcap/internal/transcribe"
)

// EnvOpenAIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIKey = "OPENAI_API_KEY"

// flagValues holds raw flag input. Empty strings mean "not given".
type flagValues struct {
	duration    string
	outputDir   string
	audioDevice string
	videoDevice string
	language    string
	provider    string
	prompt      string
	verbose     bool
}

// settings is the validated result of flags over config over defaults.
type settings struct {
	duration     time.Duration
	outputDir    string
	audioDevice  string
	videoDevice  string
	language     lang.Language
	prompt       string
	provider     Provider
	openAIModel  string
	whisperBin   string
	whisperModel string
	logLevel     string
}

// resolveSettings applies precedence flag > config (file + env) > default.
func resolveSettings(f flagValues, cfg config.Config) (settings, error) {
	s := settings{
		duration:     pipeline.DefaultDuration,
		outputDir:    firstNonEmpty(f.outputDir, cfg.OutputDir, "."),
		audioDevice:  firstNonEmpty(f.audioDevice, cfg.AudioDevice),
		videoDevice:  firstNonEmpty(f.videoDevice, cfg.VideoDevice),
		prompt:       f.prompt,
		openAIModel:  firstNonEmpty(cfg.OpenAIModel, transcribe.DefaultModel),
		whisperBin:   cfg.WhisperCppBin,
		whisperModel: cfg.WhisperCppModel,
		logLevel:     cfg.LogLevel,
	}
	if f.verbose {
		s.logLevel = "debug"
	}

	if raw := firstNonEmpty(f.duration, cfg.Duration); raw != "" {
		d, err := config.ParseDuration(raw)
		if err != nil {
			return settings{}, fmt.Errorf("invalid duration %q: %w (use format like 7s, 1m30s; at most 10m)", raw, ErrInvalidDuration)
		}
		s.duration = d
	}

	s.language = lang.English
	if raw := firstNonEmpty(f.language, cfg.Language); raw != "" {
		l, err := lang.Parse(raw)
		if err != nil {
			return settings{}, err
		}
		s.language = l
	}

	p, err := ParseProvider(firstNonEmpty(f.provider, cfg.Provider))
	if err != nil {
		return settings{}, err
	}
	s.provider = p.OrDefault()

	return s, nil
}

// loadSettings loads config, warning on failure like a missing file would,
// and resolves it against the flags.
func loadSettings(env *Env, f flagValues) (settings, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return resolveSettings(f, cfg)
}

// newTranscriber builds the configured backend, failing fast on missing
// credentials or binaries before any device is opened.
func newTranscriber(env *Env, s settings) (transcribe.Transcriber, error) {
	switch s.provider.OrDefault() {
	case WhisperCppProvider:
		return env.TranscriberFactory.NewWhisperCpp(s.whisperBin, s.whisperModel)
	default:
		apiKey := env.Getenv(EnvOpenAIKey)
		if apiKey == "" {
			return nil, ErrAPIKeyMissing
		}
		return env.TranscriberFactory.NewOpenAI(apiKey, s.openAIModel), nil
	}
}

// initLogging configures the diagnostics logger for a command.
func initLogging(w io.Writer, level string) {
	logging.Init("text", level, w)
}

// addCommonFlags registers the flags shared by run and transcribe.
func addCommonFlags(cmd *cobra.Command, f *flagValues) {
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Spoken language (ISO 639-1, e.g. en, fr, pt-BR; 'auto' to detect)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Transcription backend: openai, whisper-cpp (default openai)")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Context for recognition (names, vocabulary)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print diagnostic logs")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
