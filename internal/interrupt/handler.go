// Package interrupt turns Ctrl+C into a two-step decision for a capture
// run. The first interrupt lets the clip finish but cancels the work that
// follows it. A second interrupt inside a short window aborts the process.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// Window is the time allowed for a second Ctrl+C to trigger abort.
const Window = 2 * time.Second

const (
	defaultNotice = "\nFinishing the clip; captions will be skipped. Press Ctrl+C again to abort."
	abortMessage  = "\nAborted."
)

// Handler tracks interrupts for one run.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	aborted        bool
	stopped        bool
	cancel         context.CancelFunc
	done           chan struct{}

	notice   string
	exitFunc func(int)
	now      func() time.Time
	stderr   io.Writer
	reset    func()
}

// Options holds injectable dependencies.
type Options struct {
	// SigCh delivers signals. Nil disables listening.
	SigCh <-chan os.Signal

	// Notice is printed on the first interrupt.
	Notice string

	ExitFunc func(int)
	NowFunc  func() time.Time

	// Stderr receives user-facing messages and must tolerate concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT and SIGTERM. The returned context is
// cancelled on the first interrupt.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	return NewHandlerWithNotice(parent, "")
}

// NewHandlerWithNotice is NewHandler with a custom first-interrupt message.
// An empty notice keeps the capture default.
func NewHandlerWithNotice(parent context.Context, notice string) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	h, ctx := NewHandlerWithOptions(parent, Options{SigCh: sigCh, Notice: notice})
	h.reset = func() { signal.Stop(sigCh) }
	return h, ctx
}

// NewHandlerWithOptions creates a handler with injected dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		notice:   opts.Notice,
		exitFunc: opts.ExitFunc,
		now:      opts.NowFunc,
		stderr:   opts.Stderr,
		reset:    func() {},
	}
	if h.notice == "" {
		h.notice = defaultNotice
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle records one signal and reports whether listening should stop.
func (h *Handler) handle() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.now()

	if !h.interrupted {
		h.interrupted = true
		h.firstInterrupt = now
		h.cancel()
		h.mu.Unlock()
		_, _ = fmt.Fprintln(h.stderr, h.notice)
		return false
	}

	if now.Sub(h.firstInterrupt) > Window {
		// Too late for a double press; treat it as a fresh first press.
		h.firstInterrupt = now
		h.mu.Unlock()
		_, _ = fmt.Fprintln(h.stderr, h.notice)
		return false
	}

	h.aborted = true
	h.mu.Unlock()
	_, _ = fmt.Fprintln(h.stderr, abortMessage)
	h.exitFunc(ExitInterrupt)
	return true
}

// WasInterrupted reports whether at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Aborted reports whether a double interrupt was received.
func (h *Handler) Aborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

// Stop releases the signal subscription. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.reset()
	h.cancel()
	close(h.done)
}
