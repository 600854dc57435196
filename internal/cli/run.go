package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alnah/clipcap/internal/config"
	"github.com/alnah/clipcap/internal/format"
	"github.com/alnah/clipcap/internal/pipeline"
	"github.com/alnah/clipcap/internal/transcribe"
)

const runLong = `Record a short clip from the microphone and camera at the same time,
then transcribe the audio into a captions file.

Three files are written to the output directory:
  video_<timestamp>.mp4     camera frames, MPEG-4 at 30 fps
  audio_<timestamp>.wav     mono 16 kHz 16-bit PCM
  captions_<timestamp>.txt  transcribed text (empty for silence)

A failure of one device does not stop the other. Captions are only
produced when the audio was recorded. Ctrl+C lets the clip finish and
skips captions; press it twice to abort.`

const runExample = `  clipcap                               # 7 seconds, default devices
  clipcap -d 10s -o ~/clips -l fr
  clipcap --video-device /dev/video2 --audio-device hw:1,0
  clipcap --provider whisper-cpp`

// RunCmd creates the run command. The root command runs it too, via BindRun.
func RunCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Record a clip and write captions (default command)",
		Long:    runLong,
		Example: runExample,
		Args:    cobra.NoArgs,
	}
	BindRun(cmd, env)
	return cmd
}

// BindRun attaches the run flags and action to cmd.
func BindRun(cmd *cobra.Command, env *Env) {
	var f flagValues

	cmd.Flags().StringVarP(&f.duration, "duration", "d", "", "Clip length (e.g. 7s, 1m; default 7s)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for the clip files (default: current directory)")
	cmd.Flags().StringVar(&f.audioDevice, "audio-device", "", "Microphone device (default: system default)")
	cmd.Flags().StringVar(&f.videoDevice, "video-device", "", "Camera device (default: first camera)")
	addCommonFlags(cmd, &f)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := env.Interrupts.Notify(cmd.Context(), "")
		defer stop()

		return runRun(ctx, env, f)
	}
}

// runRun validates settings, builds the collaborators and runs one session.
// Validation order: settings -> output dir -> transcriber -> ffmpeg -> recorders.
func runRun(ctx context.Context, env *Env, f flagValues) error {
	s, err := loadSettings(env, f)
	if err != nil {
		return err
	}
	initLogging(env.Stderr, s.logLevel)

	outputDir, err := config.EnsureOutputDir(s.outputDir)
	if err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}

	transcriber, err := newTranscriber(env, s)
	if err != nil {
		return err
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	reporter := pipeline.NewReporter(pipeline.DefaultEventBuffer)
	audioRec, err := env.RecorderFactory.NewAudioRecorder(ffmpegPath, s.audioDevice)
	if err != nil {
		return err
	}
	videoRec, err := env.RecorderFactory.NewVideoRecorder(ffmpegPath, s.videoDevice, reporter.VideoProgress)
	if err != nil {
		return err
	}

	orch := pipeline.New(pipeline.Config{
		OutputDir:  outputDir,
		Duration:   s.duration,
		Transcribe: transcribe.Options{Language: s.language, Prompt: s.prompt},
	}, audioRec, videoRec, transcriber,
		pipeline.WithClock(env.Now),
		pipeline.WithReporter(reporter),
	)

	fmt.Fprintf(env.Stderr, "Recording %s of audio and video to %s (Ctrl+C finishes the clip without captions)\n",
		format.DurationHuman(s.duration), outputDir)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printEvents(env.Stderr, reporter.Events())
	}()

	res, runErr := orch.Run(ctx)
	reporter.Close()
	wg.Wait()

	if res.Session.Token != "" {
		printSummary(env.Stderr, res)
	}
	return runErr
}
