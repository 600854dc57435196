package pipeline_test

import (
	"testing"

	"github.com/alnah/clipcap/internal/pipeline"
	"github.com/alnah/clipcap/internal/video"
)

func TestReporter_DropsWhenFull(t *testing.T) {
	t.Parallel()

	r := pipeline.NewReporter(2)
	for range 5 {
		r.VideoProgress(video.Progress{Frames: 30, Target: 210})
	}

	if got := r.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	r.Close()

	n := 0
	for range r.Events() {
		n++
	}
	if n != 2 {
		t.Errorf("received %d events, want 2", n)
	}
}

func TestReporter_CloseIsIdempotentAndSilencesEmit(t *testing.T) {
	t.Parallel()

	r := pipeline.NewReporter(0)
	r.Close()
	r.Close()
	r.Emit(pipeline.Event{Stage: pipeline.StageAudio})

	if _, ok := <-r.Events(); ok {
		t.Error("received event after Close()")
	}
}

func TestReporter_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *pipeline.Reporter
	r.Emit(pipeline.Event{Stage: pipeline.StageVideo})
	r.VideoProgress(video.Progress{})
}
