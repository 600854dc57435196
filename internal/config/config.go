// Package config loads and persists user settings from a TOML file at
// $XDG_CONFIG_HOME/clipcap/config.toml, with CLIPCAP_* environment
// variables taking precedence over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/lang"
	"github.com/alnah/clipcap/internal/logging"
)

// Config keys, as written in the TOML file.
const (
	KeyOutputDir       = "output_dir"
	KeyDuration        = "duration"
	KeyLanguage        = "language"
	KeyAudioDevice     = "audio_device"
	KeyVideoDevice     = "video_device"
	KeyProvider        = "provider"
	KeyOpenAIModel     = "openai_model"
	KeyWhisperCppBin   = "whisper_cpp_bin"
	KeyWhisperCppModel = "whisper_cpp_model"
	KeyLogLevel        = "log_level"
)

// EnvPrefix prefixes the environment override of every key
// (output_dir -> CLIPCAP_OUTPUT_DIR).
const EnvPrefix = "CLIPCAP_"

const (
	appName  = "clipcap"
	fileName = "config.toml"
)

// Provider names accepted by the provider key.
const (
	ProviderOpenAI     = "openai"
	ProviderWhisperCpp = "whisper-cpp"
)

// Config holds user settings. Empty fields mean "use the default".
type Config struct {
	OutputDir       string `toml:"output_dir,omitempty"`
	Duration        string `toml:"duration,omitempty"`
	Language        string `toml:"language,omitempty"`
	AudioDevice     string `toml:"audio_device,omitempty"`
	VideoDevice     string `toml:"video_device,omitempty"`
	Provider        string `toml:"provider,omitempty"`
	OpenAIModel     string `toml:"openai_model,omitempty"`
	WhisperCppBin   string `toml:"whisper_cpp_bin,omitempty"`
	WhisperCppModel string `toml:"whisper_cpp_model,omitempty"`
	LogLevel        string `toml:"log_level,omitempty"`
}

// Keys returns every config key in display order.
func Keys() []string {
	return []string{
		KeyOutputDir, KeyDuration, KeyLanguage, KeyAudioDevice, KeyVideoDevice,
		KeyProvider, KeyOpenAIModel, KeyWhisperCppBin, KeyWhisperCppModel, KeyLogLevel,
	}
}

// field returns a pointer to the value stored under key.
func (c *Config) field(key string) (*string, bool) {
	switch key {
	case KeyOutputDir:
		return &c.OutputDir, true
	case KeyDuration:
		return &c.Duration, true
	case KeyLanguage:
		return &c.Language, true
	case KeyAudioDevice:
		return &c.AudioDevice, true
	case KeyVideoDevice:
		return &c.VideoDevice, true
	case KeyProvider:
		return &c.Provider, true
	case KeyOpenAIModel:
		return &c.OpenAIModel, true
	case KeyWhisperCppBin:
		return &c.WhisperCppBin, true
	case KeyWhisperCppModel:
		return &c.WhisperCppModel, true
	case KeyLogLevel:
		return &c.LogLevel, true
	}
	return nil, false
}

// Value returns the value stored under key.
func (c Config) Value(key string) (string, error) {
	p, ok := c.field(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return *p, nil
}

// Set validates value and stores it under key.
func (c *Config) Set(key, value string) error {
	p, ok := c.field(key)
	if !ok {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	if err := Validate(key, value); err != nil {
		return err
	}
	*p = value
	return nil
}

// Map returns the non-empty settings keyed by config key.
func (c Config) Map() map[string]string {
	out := make(map[string]string)
	for _, key := range Keys() {
		if v, _ := c.Value(key); v != "" {
			out[key] = v
		}
	}
	return out
}

// DurationValue parses the duration setting. Empty means zero (default).
func (c Config) DurationValue() (time.Duration, error) {
	if c.Duration == "" {
		return 0, nil
	}
	return ParseDuration(c.Duration)
}

// ParseDuration accepts Go durations ("7s", "1m30s") or a bare number of
// seconds ("7", "2.5"). The result must be positive and no longer than
// capture.MaxDuration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	d, err := time.ParseDuration(s)
	if err != nil {
		secs, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%w: duration %q (use e.g. 7s or 1m)", ErrInvalidValue, s)
		}
		if math.IsNaN(secs) || secs <= 0 {
			return 0, fmt.Errorf("%w: duration must be positive, got %q", ErrInvalidValue, s)
		}
		if secs > capture.MaxDuration.Seconds() {
			return 0, fmt.Errorf("%w: duration %q exceeds %v", ErrInvalidValue, s, capture.MaxDuration)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %q", ErrInvalidValue, s)
	}
	if d > capture.MaxDuration {
		return 0, fmt.Errorf("%w: duration %q exceeds %v", ErrInvalidValue, s, capture.MaxDuration)
	}
	return d, nil
}

// Validate checks value against the rules for key. Empty values are
// always valid and mean "unset".
func Validate(key, value string) error {
	if value == "" {
		return nil
	}
	switch key {
	case KeyDuration:
		_, err := ParseDuration(value)
		return err
	case KeyLanguage:
		if _, err := lang.Parse(value); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	case KeyProvider:
		if !slices.Contains([]string{ProviderOpenAI, ProviderWhisperCpp}, value) {
			return fmt.Errorf("%w: provider %q (use %s or %s)", ErrInvalidValue, value, ProviderOpenAI, ProviderWhisperCpp)
		}
	case KeyLogLevel:
		if !logging.ValidLevel(value) {
			return fmt.Errorf("%w: log level %q (use debug, info, warn or error)", ErrInvalidValue, value)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// File and environment
// ---------------------------------------------------------------------------

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/clipcap.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// Load reads the config file, then applies CLIPCAP_* environment
// overrides. A missing file is not an error.
func Load() (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}
	for _, key := range Keys() {
		if v, ok := os.LookupEnv(EnvName(key)); ok && v != "" {
			if err := cfg.Set(key, v); err != nil {
				return cfg, fmt.Errorf("%s: %w", EnvName(key), err)
			}
		}
	}
	return cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// loadFile decodes the config file only, rejecting unknown keys and
// invalid values.
func loadFile() (Config, error) {
	var cfg Config

	p, err := Path()
	if err != nil {
		return cfg, err
	}

	md, err := toml.DecodeFile(p, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", p, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: %w: %q", p, ErrUnknownKey, undecoded[0].String())
	}
	for _, key := range Keys() {
		v, _ := cfg.Value(key)
		if err := Validate(key, v); err != nil {
			return Config{}, fmt.Errorf("%s: %s: %w", p, key, err)
		}
	}
	return cfg, nil
}

// Save writes a single key to the config file, preserving other keys.
// Creates the config directory and file if they don't exist.
func Save(key, value string) error {
	cfg, err := loadFile()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- not a secret
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get reads a single value from the config file (environment ignored).
// Returns an empty string if the key is unset.
func Get(key string) (string, error) {
	cfg, err := loadFile()
	if err != nil {
		return "", err
	}
	return cfg.Value(key)
}

// List returns the settings stored in the config file.
func List() (map[string]string, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}
	return cfg.Map(), nil
}

// ---------------------------------------------------------------------------
// Output paths
// ---------------------------------------------------------------------------

// ResolveOutputPath resolves an explicit output path against outputDir:
//  1. absolute output is used as-is
//  2. relative output is joined to outputDir when set
//  3. empty output yields defaultPath unchanged
func ResolveOutputPath(output, outputDir, defaultPath string) string {
	switch {
	case output == "":
		return filepath.Clean(defaultPath)
	case filepath.IsAbs(output) || outputDir == "":
		return filepath.Clean(output)
	default:
		return filepath.Clean(filepath.Join(outputDir, output))
	}
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// EnsureOutputDir creates d if needed and checks that it is a writable
// directory. Returns the expanded path.
func EnsureOutputDir(d string) (string, error) {
	if d == "" {
		return "", fmt.Errorf("%w: output directory cannot be empty", ErrInvalidValue)
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(d, 0o750); err != nil { // #nosec G301 -- user output dir
			return "", fmt.Errorf("cannot create directory: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("cannot access directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, d)
	}

	probe, err := os.CreateTemp(d, ".clipcap-write-test-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return d, nil
}
