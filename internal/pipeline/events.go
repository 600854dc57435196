package pipeline

import (
	"sync"
	"time"

	"github.com/alnah/clipcap/internal/video"
)

// Stage names a step of a capture run.
type Stage string

// Capture run stages.
const (
	StageAudio    Stage = "audio"
	StageVideo    Stage = "video"
	StageCaptions Stage = "captions"
)

// EventKind classifies a progress event.
type EventKind int

const (
	// EventStarted is sent when a stage begins.
	EventStarted EventKind = iota
	// EventFinished is sent when a stage ends; Err is set on failure.
	EventFinished
	// EventProgress carries the video time still to record.
	EventProgress
)

// Event is one progress notification.
type Event struct {
	Stage     Stage
	Kind      EventKind
	Remaining time.Duration
	Err       error
}

// DefaultEventBuffer is the channel size used by NewReporter when size < 1.
const DefaultEventBuffer = 32

// Reporter delivers events on a buffered channel. Sends never block:
// when the buffer is full the event is dropped.
type Reporter struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped int
}

// NewReporter creates a Reporter with the given buffer size.
func NewReporter(size int) *Reporter {
	if size < 1 {
		size = DefaultEventBuffer
	}
	return &Reporter{ch: make(chan Event, size)}
}

// Events returns the receive side. It is closed by Close.
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

// Emit sends e unless the buffer is full or the reporter is closed.
func (r *Reporter) Emit(e Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- e:
	default:
		r.dropped++
	}
}

// VideoProgress adapts video recorder progress into events.
func (r *Reporter) VideoProgress(p video.Progress) {
	r.Emit(Event{Stage: StageVideo, Kind: EventProgress, Remaining: p.Remaining()})
}

// Dropped returns how many events were discarded on a full buffer.
func (r *Reporter) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close closes the event channel. Later emits are ignored.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
}
