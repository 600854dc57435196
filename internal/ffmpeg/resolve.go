package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

const (
	// binaryName is the base name of the ffmpeg binary.
	binaryName = "ffmpeg"

	// minFFmpegMajorVersion is the oldest release with the v4l2/avfoundation
	// rawvideo behavior the camera reader depends on.
	minFFmpegMajorVersion = 4
)

// EnvFFmpegPath overrides PATH lookup when set.
const EnvFFmpegPath = "FFMPEG_PATH"

// ---------------------------------------------------------------------------
// Resolver - testable FFmpeg resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver locates the FFmpeg binary.
type Resolver struct {
	stater fileStater
	env    envProvider
	goos   string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStater sets the filesystem existence checker.
func WithFileStater(s fileStater) ResolverOption {
	return func(r *Resolver) { r.stater = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithPlatform sets the target OS (for testing install instructions).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stater: osFileStater{},
		env:    osEnvProvider{},
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. FFMPEG_PATH environment variable (error if set but invalid)
//  2. System PATH
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	if envPath := r.env.Getenv(EnvFFmpegPath); envPath != "" {
		if _, err := r.stater.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found",
				ErrNotFound, EnvFFmpegPath, envPath)
		}
		return envPath, nil
	}

	name := binaryName
	if r.goos == "windows" {
		name += ".exe"
	}
	if path, err := r.env.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w in PATH\n\n%s", ErrNotFound, r.installInstructions())
}

// installInstructions returns platform-specific install help.
func (r *Resolver) installInstructions() string {
	switch r.goos {
	case "darwin":
		return `To install FFmpeg:
  brew install ffmpeg

Or set FFMPEG_PATH to your ffmpeg binary.`
	case "linux":
		return `To install FFmpeg:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH to your ffmpeg binary.`
	case "windows":
		return `To install FFmpeg:
  winget install ffmpeg

Or set FFMPEG_PATH to your ffmpeg.exe.`
	default:
		return `Download FFmpeg from https://ffmpeg.org/download.html
or set FFMPEG_PATH to your ffmpeg binary.`
	}
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Resolve finds ffmpeg using the default resolver.
func Resolve(ctx context.Context) (string, error) {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver.Resolve(ctx)
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

// VersionChecker warns when FFmpeg is older than the supported minimum.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: getDefaultExecutor(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check prints a warning if ffmpeg is below the minimum major version.
// Returns false when the version could not be determined.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return false
	}

	major, ok := parseMajorVersion(output)
	if !ok {
		return false
	}
	if major < minFFmpegMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return true
}

// parseMajorVersion reads the major version from the first line of
// "ffmpeg -version" output ("ffmpeg version 6.1.1 ..." or "ffmpeg version n6.1").
func parseMajorVersion(output string) (int, bool) {
	first, _, _ := strings.Cut(output, "\n")
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major, true
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major, true
	}
	return 0, false
}

// CheckVersion runs the default VersionChecker.
func CheckVersion(ctx context.Context, ffmpegPath string) {
	NewVersionChecker().Check(ctx, ffmpegPath)
}
