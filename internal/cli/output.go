package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/clipcap/internal/format"
	"github.com/alnah/clipcap/internal/pipeline"
)

// printEvents writes a line per stage transition and a countdown while the
// video records. It returns when events is closed.
func printEvents(w io.Writer, events <-chan pipeline.Event) {
	lastShown := time.Duration(-1)
	for e := range events {
		switch e.Kind {
		case pipeline.EventStarted:
			if e.Stage == pipeline.StageCaptions {
				_, _ = fmt.Fprintln(w, "Transcribing audio...")
			}
		case pipeline.EventProgress:
			// Progress arrives every second of video; only whole seconds are shown.
			left := e.Remaining.Truncate(time.Second)
			if left != lastShown {
				lastShown = left
				_, _ = fmt.Fprintf(w, "  %s remaining\n", format.Clock(left))
			}
		case pipeline.EventFinished:
			if e.Err != nil {
				_, _ = fmt.Fprintf(w, "  %s failed: %v\n", e.Stage, e.Err)
			} else {
				_, _ = fmt.Fprintf(w, "  %s done\n", e.Stage)
			}
		}
	}
}

// printSummary lists what the run produced.
func printSummary(w io.Writer, res pipeline.Result) {
	_, _ = fmt.Fprintf(w, "\nSession %s\n", res.Session.Token)

	// A camera that stops early still leaves a playable partial file.
	if v := res.Video.Result; v.Path != "" {
		_, _ = fmt.Fprintf(w, "  video     %s (%s, %s, %d/%d frames, %s)\n",
			v.Path, fileSize(v.Path), format.Resolution(v.Format.Width, v.Format.Height),
			v.Frames, v.Target, v.Outcome)
	}
	if res.Video.Err != nil {
		_, _ = fmt.Fprintf(w, "  video     failed: %v\n", res.Video.Err)
	}

	if res.Audio.Err == nil {
		_, _ = fmt.Fprintf(w, "  audio     %s (%s)\n", res.Audio.Result.Path, fileSize(res.Audio.Result.Path))
	} else {
		_, _ = fmt.Fprintf(w, "  audio     failed: %v\n", res.Audio.Err)
	}

	switch {
	case res.Captions.Err == nil:
		_, _ = fmt.Fprintf(w, "  captions  %s\n", res.Session.CaptionsPath)
		if res.Captions.Text == "" {
			_, _ = fmt.Fprintln(w, "\n(no speech detected)")
		} else {
			_, _ = fmt.Fprintf(w, "\n%s\n", res.Captions.Text)
		}
	case errors.Is(res.Captions.Err, pipeline.ErrSkipped):
		_, _ = fmt.Fprintln(w, "  captions  skipped (no audio)")
	default:
		_, _ = fmt.Fprintf(w, "  captions  failed: %v\n", res.Captions.Err)
	}
}

// fileSize formats the size of path, or "?" when it cannot be read.
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return format.Size(info.Size())
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}
