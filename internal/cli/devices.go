package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/clipcap/internal/capture"
)

// DevicesCmd creates the devices command.
func DevicesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List microphones and cameras",
		Long: `List the capture devices FFmpeg can open on this system.

Pass a name or ID to --audio-device or --video-device to use it instead
of the default.`,
		Example: `  clipcap devices
  clipcap --video-device /dev/video2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListDevices(cmd.Context(), env)
		},
	}
}

// runListDevices resolves FFmpeg and prints both device kinds. A listing
// failure for one kind is reported without hiding the other.
func runListDevices(ctx context.Context, env *Env) error {
	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	lister := env.DeviceListerFactory.NewDeviceLister(ffmpegPath)

	var firstErr error
	for _, kind := range []capture.Kind{capture.Audio, capture.Video} {
		devices, err := lister.Devices(ctx, kind)
		_, _ = fmt.Fprintf(env.Stdout, "%s devices:\n", kindTitle(kind))
		switch {
		case err != nil:
			_, _ = fmt.Fprintf(env.Stdout, "  (unavailable: %v)\n", err)
			if firstErr == nil {
				firstErr = err
			}
		case len(devices) == 0:
			_, _ = fmt.Fprintln(env.Stdout, "  (none found)")
		default:
			for _, d := range devices {
				if d.Name != "" && d.Name != d.ID {
					_, _ = fmt.Fprintf(env.Stdout, "  %-24s %s\n", d.ID, d.Name)
				} else {
					_, _ = fmt.Fprintf(env.Stdout, "  %s\n", d.ID)
				}
			}
		}
	}
	return firstErr
}

func kindTitle(k capture.Kind) string {
	if k == capture.Video {
		return "Video"
	}
	return "Audio"
}
