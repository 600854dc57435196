package ffmpeg

// Notes:
// - Process tests use real processes (sh, cat) and are skipped on Windows
// - RunOutput tests use Executor with injected runOutput function
// - Version checks use a mock runOutput

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// ---------------------------------------------------------------------------
// scanLinesCR - stderr line splitting
// ---------------------------------------------------------------------------

func TestScanLinesCR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "newline separated", input: "a\nb\n", want: []string{"a", "b"}},
		{name: "carriage return progress", input: "frame=1\rframe=2\r", want: []string{"frame=1", "frame=2"}},
		{name: "mixed with trailing text", input: "x\r\ny", want: []string{"x", "", "y"}},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(scanLinesCR)
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("scan(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Process - real child processes
// ---------------------------------------------------------------------------

func TestStart_StdoutIsReadableAfterExit(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	p, err := Start(context.Background(), "sh", []string{"-c", "printf hello"}, StartOptions{Stdout: true})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer func() { _ = p.Kill() }()

	<-p.Exited()

	got, err := io.ReadAll(p.Stdout())
	if err != nil {
		t.Fatalf("ReadAll(stdout) unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
	if err := p.ExitErr(); err != nil {
		t.Errorf("ExitErr() = %v, want nil", err)
	}
}

func TestStart_StderrLinesAndTail(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	var mu sync.Mutex
	var lines []string
	p, err := Start(context.Background(), "sh", []string{"-c", "printf 'one\\ntwo\\rthree\\n' >&2"}, StartOptions{
		OnStderrLine: func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	<-p.Exited()
	_ = p.Kill()

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(lines, ",") != "one,two,three" {
		t.Errorf("stderr lines = %q, want [one two three]", lines)
	}
	if tail := p.Stderr(); !strings.Contains(tail, "three") {
		t.Errorf("Stderr() = %q, want containing %q", tail, "three")
	}
}

func TestProcess_FinishClosesStdin(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	p, err := Start(context.Background(), "cat", nil, StartOptions{Stdin: true, Stdout: true})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	var out bytes.Buffer
	copied := make(chan struct{})
	go func() {
		_, _ = io.Copy(&out, p.Stdout())
		close(copied)
	}()

	if _, err := io.WriteString(p.Stdin(), "frame"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	if err := p.Finish(5 * time.Second); err != nil {
		t.Fatalf("Finish() unexpected error: %v", err)
	}
	<-copied

	if out.String() != "frame" {
		t.Errorf("echoed %q, want %q", out.String(), "frame")
	}
}

func TestProcess_FinishReportsFailure(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	p, err := Start(context.Background(), "sh", []string{"-c", "echo broken >&2; exit 3"}, StartOptions{Stdin: true})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	err = p.Finish(5 * time.Second)
	if err == nil {
		t.Fatal("Finish() error = nil, want exit error")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("Finish() error = %v, want stderr tail included", err)
	}
}

func TestProcess_FinishTimeoutKills(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	// Ignores stdin EOF, so only the kill ends it.
	p, err := Start(context.Background(), "sh", []string{"-c", "exec sleep 30"}, StartOptions{Stdin: true})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	err = p.Finish(50 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Finish() error = %v, want ErrTimeout", err)
	}
}

func TestProcess_KillIsIdempotent(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	p, err := Start(context.Background(), "sh", []string{"-c", "exec sleep 30"}, StartOptions{Stdout: true})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	if err := p.Kill(); err != nil {
		t.Errorf("first Kill() = %v, want nil", err)
	}
	if err := p.Kill(); err != nil {
		t.Errorf("second Kill() = %v, want nil", err)
	}
	select {
	case <-p.Exited():
	default:
		t.Error("Exited() not closed after Kill()")
	}
}

func TestStart_NonexistentBinary(t *testing.T) {
	t.Parallel()

	_, err := Start(context.Background(), "/nonexistent/ffmpeg", nil, StartOptions{Stdout: true})
	if err == nil {
		t.Error("Start(/nonexistent/ffmpeg) error = nil, want error")
	}
}

func TestProcess_ExitErrWhileRunning(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	p, err := Start(context.Background(), "sh", []string{"-c", "exec sleep 30"}, StartOptions{})
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer func() { _ = p.Kill() }()

	if err := p.ExitErr(); !errors.Is(err, ErrRunning) {
		t.Errorf("ExitErr() = %v, want ErrRunning", err)
	}
}

// ---------------------------------------------------------------------------
// Executor.RunOutput
// ---------------------------------------------------------------------------

func TestExecutor_RunOutput(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(
		WithRunOutput(func(ctx context.Context, path string, args []string) (string, error) {
			return "listing", errors.New("exit status 1")
		}),
	)

	got, err := executor.RunOutput(context.Background(), "/usr/bin/ffmpeg", []string{"-list_devices", "true"})
	if err == nil {
		t.Error("RunOutput() error = nil, want error passed through")
	}
	if got != "listing" {
		t.Errorf("RunOutput() = %q, want %q", got, "listing")
	}
}

func TestDefaultRunOutput_CapturesBothStreams(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	output, err := defaultRunOutput(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"})
	if err != nil {
		t.Fatalf("defaultRunOutput() unexpected error: %v", err)
	}
	if !strings.Contains(output, "out") || !strings.Contains(output, "err") {
		t.Errorf("defaultRunOutput() = %q, want stdout and stderr", output)
	}
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

func TestParseMajorVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   int
		wantOK bool
	}{
		{name: "release", output: "ffmpeg version 6.1.1 Copyright (c) 2000-2023", want: 6, wantOK: true},
		{name: "git build", output: "ffmpeg version n7.0-12-gabc\nbuilt with gcc", want: 7, wantOK: true},
		{name: "garbage", output: "command not found", wantOK: false},
		{name: "empty", output: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseMajorVersion(tt.output)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseMajorVersion(%q) = %d, %v; want %d, %v", tt.output, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestVersionChecker_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		output   string
		wantOK   bool
		wantWarn bool
	}{
		{name: "recent version", output: "ffmpeg version 6.1.1", wantOK: true},
		{name: "old version warns", output: "ffmpeg version 3.4.8", wantOK: true, wantWarn: true},
		{name: "unparseable", output: "nope", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stderr bytes.Buffer
			vc := NewVersionChecker(
				WithVersionExecutor(NewExecutor(WithRunOutput(func(ctx context.Context, path string, args []string) (string, error) {
					return tt.output, nil
				}))),
				WithVersionStderr(&stderr),
			)

			if got := vc.Check(context.Background(), "/usr/bin/ffmpeg"); got != tt.wantOK {
				t.Errorf("Check() = %v, want %v", got, tt.wantOK)
			}
			if warned := strings.Contains(stderr.String(), "Warning"); warned != tt.wantWarn {
				t.Errorf("warning printed = %v, want %v (stderr %q)", warned, tt.wantWarn, stderr.String())
			}
		})
	}
}
