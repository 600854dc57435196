package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Process - a long-running FFmpeg child with piped media streams
// ---------------------------------------------------------------------------

// stderrTailSize bounds how much FFmpeg diagnostic output is retained.
const stderrTailSize = 8 * 1024

// StartOptions selects which standard streams are piped to the caller.
type StartOptions struct {
	// Stdin pipes the child's stdin (encoders read frames from it).
	Stdin bool

	// Stdout pipes the child's stdout (capture sources write samples to it).
	Stdout bool

	// OnStderrLine is called for every stderr line, split on '\n' or '\r'.
	// It runs on the stderr reader goroutine and must not block.
	OnStderrLine func(line string)
}

// Process is a running FFmpeg child. The zero value is not usable; create
// one with Start. Exactly one of Kill or Finish must be called to release it.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File

	tailMu sync.Mutex
	tail   []byte

	done    chan struct{}
	waitErr error

	releaseOnce sync.Once
	releaseErr  error
}

// Start launches ffmpegPath with args. The child is not bound to ctx and
// does not receive terminal interrupts: capture runs until the caller
// releases it.
func Start(_ context.Context, ffmpegPath string, args []string, opts StartOptions) (*Process, error) {
	cmd := exec.Command(ffmpegPath, args...) // #nosec G204 -- ffmpegPath comes from Resolver
	detach(cmd)
	p := &Process{cmd: cmd, done: make(chan struct{})}

	var stdoutWriter *os.File
	if opts.Stdout {
		// A bare os.Pipe keeps the read end open across cmd.Wait so buffered
		// media is not lost when the child exits first.
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("create stdout pipe: %w", err)
		}
		p.stdout = r
		stdoutWriter = w
		cmd.Stdout = w
	}

	if opts.Stdin {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			p.closeStdout(stdoutWriter)
			return nil, fmt.Errorf("create stdin pipe: %w", err)
		}
		p.stdin = stdin
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.closeStdout(stdoutWriter)
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		p.closeStdout(stdoutWriter)
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	if stdoutWriter != nil {
		_ = stdoutWriter.Close() // Child holds its own copy.
	}

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		p.readStderr(stderr, opts.OnStderrLine)
	}()
	go func() {
		// Wait must not run before stderr is fully read.
		<-stderrDone
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

func (p *Process) closeStdout(w *os.File) {
	if w != nil {
		_ = w.Close()
	}
	if p.stdout != nil {
		_ = p.stdout.Close()
	}
}

// readStderr keeps a bounded tail of stderr and forwards complete lines.
func (p *Process) readStderr(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	scanner.Split(scanLinesCR)
	for scanner.Scan() {
		line := scanner.Text()
		p.appendTail(line)
		if onLine != nil {
			onLine(line)
		}
	}
	// Drain anything left after a scanner error so the child never blocks.
	_, _ = io.Copy(io.Discard, r)
}

func (p *Process) appendTail(line string) {
	p.tailMu.Lock()
	defer p.tailMu.Unlock()
	p.tail = append(p.tail, line...)
	p.tail = append(p.tail, '\n')
	if over := len(p.tail) - stderrTailSize; over > 0 {
		p.tail = append(p.tail[:0], p.tail[over:]...)
	}
}

// scanLinesCR splits on '\n' or '\r' so progress lines are delivered too.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Stdout returns the child's stdout, or nil if it was not piped.
func (p *Process) Stdout() io.Reader {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Stdin returns the child's stdin, or nil if it was not piped.
func (p *Process) Stdin() io.Writer {
	if p.stdin == nil {
		return nil
	}
	return p.stdin
}

// Stderr returns the retained tail of the child's diagnostic output.
func (p *Process) Stderr() string {
	p.tailMu.Lock()
	defer p.tailMu.Unlock()
	return string(p.tail)
}

// Exited is closed once the child has exited and its stderr is drained.
func (p *Process) Exited() <-chan struct{} {
	return p.done
}

// Kill terminates the child immediately and reaps it. Used for capture
// sources whose output is a pipe: there is no container to finalize.
func (p *Process) Kill() error {
	p.releaseOnce.Do(func() {
		if p.stdin != nil {
			_ = p.stdin.Close()
		}
		select {
		case <-p.done:
		default:
			_ = p.cmd.Process.Kill()
			<-p.done
		}
		if p.stdout != nil {
			_ = p.stdout.Close()
		}
	})
	return p.releaseErr
}

// Finish closes stdin so FFmpeg can write the container trailer, then waits
// up to timeout for a clean exit before killing the child.
func (p *Process) Finish(timeout time.Duration) error {
	p.releaseOnce.Do(func() {
		if p.stdin != nil {
			_ = p.stdin.Close()
		}
		select {
		case <-p.done:
			if p.waitErr != nil {
				p.releaseErr = fmt.Errorf("ffmpeg: %w\nOutput: %s", p.waitErr, p.Stderr())
			}
		case <-time.After(timeout):
			_ = p.cmd.Process.Kill()
			<-p.done
			p.releaseErr = fmt.Errorf("%w: killed after %v", ErrTimeout, timeout)
		}
		if p.stdout != nil {
			_ = p.stdout.Close()
		}
	})
	return p.releaseErr
}

// ExitErr returns the child's exit status, or ErrRunning before it exits.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return ErrRunning
	}
}

// IsExitError reports whether err is a non-zero exit from the child.
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// ---------------------------------------------------------------------------
// Executor - one-shot FFmpeg invocations with dependency injection
// ---------------------------------------------------------------------------

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs one-shot FFmpeg commands (device listing, version probe).
type Executor struct {
	runOutput runOutputFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput: defaultRunOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes FFmpeg and returns its combined output.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// defaultRunOutput returns output even when the command fails: FFmpeg exits
// non-zero for valid listings (e.g., -list_devices).
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...) // #nosec G204 -- path from Resolver

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}

// RunOutput executes FFmpeg with the default executor.
func RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return getDefaultExecutor().RunOutput(ctx, ffmpegPath, args)
}
