package capture

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/alnah/clipcap/internal/ffmpeg"
)

// Device is one capture input as FFmpeg addresses it.
type Device struct {
	// ID is the value passed as --audio-device / --video-device.
	ID string
	// Name is the human-readable label, equal to ID when the platform has none.
	Name string
}

func (d Device) String() string {
	if d.Name == "" || d.Name == d.ID {
		return d.ID
	}
	return d.ID + "\t" + d.Name
}

// ffmpegRunner runs one-shot FFmpeg commands.
type ffmpegRunner interface {
	RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error)
}

// pactlRunner runs pactl for PulseAudio device discovery.
type pactlRunner interface {
	ListSources(ctx context.Context) (string, error)
}

// globber matches filesystem paths (v4l2 device nodes).
type globber func(pattern string) ([]string, error)

type defaultFFmpegRunner struct{}

func (defaultFFmpegRunner) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return ffmpeg.RunOutput(ctx, ffmpegPath, args)
}

type defaultPactlRunner struct{}

func (defaultPactlRunner) ListSources(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, "pactl", "list", "sources", "short").Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// Lister enumerates capture devices and picks platform defaults.
type Lister struct {
	ffmpegPath string
	goos       string
	ffmpeg     ffmpegRunner
	pactl      pactlRunner
	glob       globber
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithFFmpegRunner sets the FFmpeg command runner.
func WithFFmpegRunner(r ffmpegRunner) ListerOption {
	return func(l *Lister) { l.ffmpeg = r }
}

// WithPactlRunner sets the pactl command runner.
func WithPactlRunner(r pactlRunner) ListerOption {
	return func(l *Lister) { l.pactl = r }
}

// WithGlob sets the device-node matcher used for v4l2.
func WithGlob(g func(pattern string) ([]string, error)) ListerOption {
	return func(l *Lister) { l.glob = g }
}

// WithGOOS sets the target OS.
func WithGOOS(goos string) ListerOption {
	return func(l *Lister) { l.goos = goos }
}

// NewLister creates a Lister for the FFmpeg binary at ffmpegPath.
func NewLister(ffmpegPath string, opts ...ListerOption) *Lister {
	l := &Lister{
		ffmpegPath: ffmpegPath,
		goos:       runtime.GOOS,
		ffmpeg:     defaultFFmpegRunner{},
		pactl:      defaultPactlRunner{},
		glob:       filepath.Glob,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GOOS returns the platform the Lister targets.
func (l *Lister) GOOS() string {
	return l.goos
}

// Devices lists inputs of kind. Audio inputs are ordered with real
// microphones first and loopback/virtual devices last.
func (l *Lister) Devices(ctx context.Context, kind Kind) ([]Device, error) {
	format := InputFormat(l.goos, kind, "")

	switch format {
	case FormatV4L2:
		nodes, err := l.glob("/dev/video*")
		if err != nil {
			return nil, err
		}
		sort.Strings(nodes)
		devices := make([]Device, 0, len(nodes))
		for _, n := range nodes {
			devices = append(devices, Device{ID: n, Name: n})
		}
		return devices, nil
	case FormatALSA:
		// Prefer PulseAudio names: they are stable and descriptive.
		if output, err := l.pactl.ListSources(ctx); err == nil {
			if devices := parsePulseDevices(output); len(devices) > 0 {
				return devices, nil
			}
		}
		return alsaDefaults(), nil
	}

	// FFmpeg -list_devices always exits non-zero (no actual input to process),
	// but the output contains the device list. Only treat as error if output
	// is empty (real failure like permission denied or ffmpeg not found).
	output, err := l.ffmpeg.RunOutput(ctx, l.ffmpegPath, listDevicesArgs(format))
	if err != nil && output == "" {
		return nil, err
	}

	if format == FormatAVFoundation {
		return parseAVFoundationDevices(output, kind), nil
	}
	return parseDShowDevices(output, kind), nil
}

// Default returns the device used when none is configured.
func (l *Lister) Default(ctx context.Context, kind Kind) (string, error) {
	format := InputFormat(l.goos, kind, "")
	if format == FormatALSA {
		// ALSA's "default" PCM follows the system mixer (PulseAudio/PipeWire).
		return "default", nil
	}

	devices, err := l.Devices(ctx, kind)
	if err != nil {
		return "", Unavailable(err, listHelp(format, kind))
	}
	if len(devices) == 0 {
		return "", Unavailable(nil, noDeviceHelp(kind))
	}
	return devices[0].ID, nil
}

func listHelp(format string, kind Kind) string {
	flag := "--" + kind.String() + "-device"
	if format == FormatV4L2 {
		return fmt.Sprintf("run 'v4l2-ctl --list-devices' to see available cameras, use %s to specify one", flag)
	}
	return fmt.Sprintf("run 'clipcap devices' to see available devices, use %s to specify one", flag)
}

func noDeviceHelp(kind Kind) string {
	if kind == Video {
		return "no camera detected, check that a camera is connected and not in use by another application"
	}
	return "no audio input devices detected, check that a microphone is connected and enabled"
}

// ---------------------------------------------------------------------------
// Output parsers
// ---------------------------------------------------------------------------

// virtualAudioDevices lists known virtual audio devices that should be deprioritized.
// These are typically used for screen sharing/loopback, not microphone input.
var virtualAudioDevices = []string{
	// macOS
	"AirBeamTV",
	"ZoomAudioDevice",
	"Microsoft Teams Audio",
	"BlackHole",
	"Soundflower",
	"Loopback Audio",
	// Windows
	"Stereo Mix",
	"Wave Out Mix",
	"What U Hear",
	"CABLE Output",
	"VB-Audio Virtual Cable",
	"virtual-audio-capturer",
	"VoiceMeeter",
	// Linux (PulseAudio/PipeWire monitor sources)
	".monitor",
}

func isVirtualAudioDevice(name string) bool {
	nameLower := strings.ToLower(name)
	for _, virtual := range virtualAudioDevices {
		if strings.Contains(nameLower, strings.ToLower(virtual)) {
			return true
		}
	}
	return false
}

func isMicrophoneDevice(name string) bool {
	nameLower := strings.ToLower(name)
	return strings.Contains(nameLower, "micro") ||
		strings.Contains(nameLower, "input") ||
		strings.Contains(nameLower, "headset") ||
		strings.Contains(nameLower, "webcam") ||
		strings.Contains(nameLower, "usb audio") ||
		strings.Contains(nameLower, "capture")
}

// rankAudio orders microphones first, then unknown devices, then virtual ones.
// Order within each group is preserved.
func rankAudio(devices []Device) []Device {
	var microphones, unknown, virtual []Device
	for _, d := range devices {
		switch {
		case isVirtualAudioDevice(d.Name):
			virtual = append(virtual, d)
		case isMicrophoneDevice(d.Name):
			microphones = append(microphones, d)
		default:
			unknown = append(unknown, d)
		}
	}
	result := make([]Device, 0, len(devices))
	result = append(result, microphones...)
	result = append(result, unknown...)
	return append(result, virtual...)
}

var avfDevicePattern = regexp.MustCompile(`\[(\d+)\]\s+(.+)$`)

// parseAVFoundationDevices parses macOS avfoundation device listing.
// Example output:
//
//	[AVFoundation indev @ 0x...] AVFoundation video devices:
//	[AVFoundation indev @ 0x...] [0] FaceTime HD Camera
//	[AVFoundation indev @ 0x...] [1] Capture screen 0
//	[AVFoundation indev @ 0x...] AVFoundation audio devices:
//	[AVFoundation indev @ 0x...] [0] MacBook Pro Microphone
func parseAVFoundationDevices(output string, kind Kind) []Device {
	var devices []Device
	var section Kind = -1
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "AVFoundation audio devices:"):
			section = Audio
			continue
		case strings.Contains(line, "AVFoundation video devices:"):
			section = Video
			continue
		}
		if section != kind {
			continue
		}
		m := avfDevicePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		// Screen capture inputs are listed as video devices but are not cameras.
		if kind == Video && strings.HasPrefix(m[2], "Capture screen") {
			continue
		}
		devices = append(devices, Device{ID: m[1], Name: m[2]})
	}
	if kind == Audio {
		return rankAudio(devices)
	}
	return devices
}

var (
	dshowQuoted      = regexp.MustCompile(`"([^"]+)"`)
	dshowSuffixAudio = regexp.MustCompile(`"([^"]+)"\s+\(audio\)`)
	dshowSuffixVideo = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)
)

// parseDShowDevices parses Windows dshow device listing. Two layouts exist
// depending on the FFmpeg build.
//
// Section-header format (older builds):
//
//	[dshow @ 0x...] DirectShow video devices
//	[dshow @ 0x...]  "Integrated Camera"
//	[dshow @ 0x...] DirectShow audio devices
//	[dshow @ 0x...]  "Microphone (Realtek High Definition Audio)"
//
// Suffix format (gyan.dev and some static builds):
//
//	[dshow @ 0x...] "HD User Facing" (video)
//	[dshow @ 0x...] "Microphone (Realtek)" (audio)
func parseDShowDevices(output string, kind Kind) []Device {
	var names []string
	if strings.Contains(output, "DirectShow audio devices") || strings.Contains(output, "DirectShow video devices") {
		names = parseDShowSectionFormat(output, kind)
	} else {
		names = parseDShowSuffixFormat(output, kind)
	}

	devices := make([]Device, 0, len(names))
	for _, n := range names {
		devices = append(devices, Device{ID: n, Name: n})
	}
	if kind == Audio {
		return rankAudio(devices)
	}
	return devices
}

func parseDShowSectionFormat(output string, kind Kind) []string {
	var names []string
	var section Kind = -1
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "DirectShow audio devices"):
			section = Audio
			continue
		case strings.Contains(line, "DirectShow video devices"):
			section = Video
			continue
		}
		if section != kind || strings.Contains(line, "Alternative name") {
			continue
		}
		if m := dshowQuoted.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

func parseDShowSuffixFormat(output string, kind Kind) []string {
	pattern := dshowSuffixAudio
	if kind == Video {
		pattern = dshowSuffixVideo
	}
	var names []string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "Alternative name") {
			continue
		}
		if m := pattern.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// parsePulseDevices parses `pactl list sources short` output:
//
//	0	alsa_output.pci-0000_00_1f.3.analog-stereo.monitor	module-alsa-card.c	s16le 2ch 44100Hz	IDLE
//	1	alsa_input.pci-0000_00_1f.3.analog-stereo	module-alsa-card.c	s16le 2ch 44100Hz	IDLE
func parsePulseDevices(output string) []Device {
	var devices []Device
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			devices = append(devices, Device{ID: fields[1], Name: fields[1]})
		}
	}
	return rankAudio(devices)
}

// alsaDefaults returns common ALSA PCM names. FFmpeg cannot enumerate ALSA;
// `arecord -l` lists hardware.
func alsaDefaults() []Device {
	return []Device{
		{ID: "default", Name: "default"},
		{ID: "hw:0", Name: "hw:0"},
		{ID: "plughw:0", Name: "plughw:0"},
	}
}
