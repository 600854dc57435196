package capture

import (
	"strings"
	"time"
)

// MaxDuration bounds a single recording. Longer requests are rejected
// before any device is opened.
const MaxDuration = 10 * time.Minute

// Kind distinguishes audio from video capture devices.
type Kind int

const (
	// Audio selects microphone-type inputs.
	Audio Kind = iota
	// Video selects camera-type inputs.
	Video
)

func (k Kind) String() string {
	if k == Video {
		return "video"
	}
	return "audio"
}

// FFmpeg input formats.
const (
	FormatALSA         = "alsa"
	FormatPulse        = "pulse"
	FormatV4L2         = "v4l2"
	FormatAVFoundation = "avfoundation"
	FormatDShow        = "dshow"
)

// InputFormat returns the FFmpeg input format for kind on goos. On Linux an
// audio device named like a PulseAudio source is read through pulse.
func InputFormat(goos string, kind Kind, device string) string {
	switch goos {
	case "darwin":
		return FormatAVFoundation
	case "windows":
		return FormatDShow
	}
	if kind == Video {
		return FormatV4L2
	}
	if isPulseSourceName(device) {
		return FormatPulse
	}
	return FormatALSA
}

// isPulseSourceName reports whether device is a PulseAudio/PipeWire source
// name as printed by `pactl list sources short`.
func isPulseSourceName(device string) bool {
	for _, prefix := range []string{"alsa_input.", "alsa_output.", "bluez_input.", "bluez_source."} {
		if strings.HasPrefix(device, prefix) {
			return true
		}
	}
	return false
}

// InputArg formats device for FFmpeg's -i argument.
func InputArg(format string, kind Kind, device string) string {
	switch format {
	case FormatAVFoundation:
		// avfoundation takes "video:audio"; audio-only input is ":index".
		if kind == Video || strings.HasPrefix(device, ":") {
			return device
		}
		return ":" + device
	case FormatDShow:
		prefix := kind.String() + "="
		if strings.HasPrefix(device, prefix) {
			return device
		}
		return prefix + device
	default:
		return device
	}
}

// listDevicesArgs returns FFmpeg arguments that print the device list for
// format, or nil when FFmpeg cannot enumerate that format.
func listDevicesArgs(format string) []string {
	switch format {
	case FormatAVFoundation:
		return []string{"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", ""}
	case FormatDShow:
		return []string{"-hide_banner", "-f", "dshow", "-list_devices", "true", "-i", "dummy"}
	default:
		return nil
	}
}
