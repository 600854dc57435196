package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/clipcap/internal/audio"
	"github.com/alnah/clipcap/internal/pipeline"
	"github.com/alnah/clipcap/internal/session"
	"github.com/alnah/clipcap/internal/video"
)

// ---------------------------------------------------------------------------
// writeFileAtomic
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "out.txt")
	if err := writeFileAtomic(path, "content"); err != nil {
		t.Fatalf("writeFileAtomic() unexpected error: %v", err)
	}
	if got := readFile(t, path); got != "content" {
		t.Errorf("content = %q, want %q", got, "content")
	}

	err := writeFileAtomic(path, "other")
	if !errors.Is(err, ErrOutputExists) {
		t.Errorf("second writeFileAtomic() error = %v, want ErrOutputExists", err)
	}
	if got := readFile(t, path); got != "content" {
		t.Errorf("content after refused overwrite = %q, want %q", got, "content")
	}
}

func TestFileSize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := fileSize(path); got != "2.0 KB" {
		t.Errorf("fileSize() = %q, want %q", got, "2.0 KB")
	}
	if got := fileSize(filepath.Join(t.TempDir(), "missing")); got != "?" {
		t.Errorf("fileSize(missing) = %q, want %q", got, "?")
	}
}

// ---------------------------------------------------------------------------
// printEvents / printSummary
// ---------------------------------------------------------------------------

func TestPrintEvents(t *testing.T) {
	t.Parallel()

	ch := make(chan pipeline.Event, 8)
	ch <- pipeline.Event{Stage: pipeline.StageVideo, Kind: pipeline.EventStarted}
	ch <- pipeline.Event{Stage: pipeline.StageVideo, Kind: pipeline.EventProgress, Remaining: 6 * time.Second}
	ch <- pipeline.Event{Stage: pipeline.StageVideo, Kind: pipeline.EventProgress, Remaining: 6*time.Second + 500*time.Millisecond}
	ch <- pipeline.Event{Stage: pipeline.StageAudio, Kind: pipeline.EventFinished, Err: errMock}
	ch <- pipeline.Event{Stage: pipeline.StageVideo, Kind: pipeline.EventFinished}
	ch <- pipeline.Event{Stage: pipeline.StageCaptions, Kind: pipeline.EventStarted}
	close(ch)

	var out strings.Builder
	printEvents(&out, ch)

	want := "  00:06 remaining\n" +
		"  audio failed: mock failure\n" +
		"  video done\n" +
		"Transcribing audio...\n"
	if out.String() != want {
		t.Errorf("printEvents() =\n%q\nwant\n%q", out.String(), want)
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	s := session.New(testNow, t.TempDir(), nil)

	tests := []struct {
		name string
		res  pipeline.Result
		want []string
	}{
		{
			name: "all stages",
			res: pipeline.Result{
				Session: s,
				Audio:   pipeline.AudioOutcome{Result: audio.Result{Path: s.AudioPath}},
				Video: pipeline.VideoOutcome{Result: video.Result{
					Path: s.VideoPath, Format: video.FrameFormat{Width: 1280, Height: 720},
					Frames: 150, Target: 210, Outcome: video.DeviceStopped,
				}},
				Captions: pipeline.CaptionsOutcome{Text: "bonjour"},
			},
			want: []string{"Session " + testToken, "1280x720", "150/210 frames", "device stopped", "bonjour"},
		},
		{
			name: "audio failed",
			res: pipeline.Result{
				Session:  s,
				Audio:    pipeline.AudioOutcome{Err: audio.ErrDeviceUnavailable},
				Video:    pipeline.VideoOutcome{Err: errMock},
				Captions: pipeline.CaptionsOutcome{Err: pipeline.ErrSkipped},
			},
			want: []string{"audio     failed", "video     failed: mock failure", "captions  skipped"},
		},
		{
			name: "camera stopped early",
			res: pipeline.Result{
				Session: s,
				Video: pipeline.VideoOutcome{
					Result: video.Result{Path: s.VideoPath, Frames: 40, Target: 210, Outcome: video.DeviceStopped},
					Err:    video.ErrCaptureInterrupted,
				},
			},
			want: []string{"40/210 frames", "device stopped", "video     failed: capture interrupted"},
		},
		{
			name: "transcription failed",
			res: pipeline.Result{
				Session:  s,
				Captions: pipeline.CaptionsOutcome{Err: pipeline.ErrTranscriptionFailed},
			},
			want: []string{"captions  failed: transcription failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out strings.Builder
			printSummary(&out, tt.res)
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("summary missing %q:\n%s", w, out.String())
				}
			}
		})
	}
}
