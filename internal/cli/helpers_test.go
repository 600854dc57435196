package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/clipcap/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	transcriber    *mockTranscriberFactory
	recorder       *mockRecorderFactory
	devices        *mockDeviceListerFactory
	interrupts     *mockInterrupts
	stdout         *syncBuffer
	stderr         *syncBuffer
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		transcriber:    &mockTranscriberFactory{},
		recorder:       &mockRecorderFactory{},
		devices:        &mockDeviceListerFactory{},
		interrupts:     &mockInterrupts{},
		stdout:         &syncBuffer{},
		stderr:         &syncBuffer{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

var testNow = time.Date(2026, 10, 18, 10, 15, 0, 0, time.UTC)

// testToken is the session token produced by testNow.
const testToken = "20261018_101500"

type testEnvOptions struct {
	getenv func(string) string
	mocks  *testMocks
}

type testEnvOption func(*testEnvOptions)

func withGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

func withConfig(cfg config.Config) testEnvOption {
	return func(o *testEnvOptions) {
		o.mocks.configLoader.LoadFunc = func() (config.Config, error) { return cfg, nil }
	}
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		getenv: defaultTestEnv,
		mocks:  newTestMocks(),
	}
	for _, opt := range opts {
		opt(options)
	}

	m := options.mocks
	env := &Env{
		Stdout:              m.stdout,
		Stderr:              m.stderr,
		Getenv:              options.getenv,
		Now:                 func() time.Time { return testNow },
		FFmpegResolver:      m.ffmpegResolver,
		ConfigLoader:        m.configLoader,
		TranscriberFactory:  m.transcriber,
		RecorderFactory:     m.recorder,
		DeviceListerFactory: m.devices,
		Interrupts:          m.interrupts,
	}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv provides an OpenAI API key.
func defaultTestEnv(key string) string {
	if key == EnvOpenAIKey {
		return "test-openai-key"
	}
	return ""
}

// createTestAudioFile creates a temporary audio file for testing.
// Returns the file path. The file is automatically cleaned up after the test.
func createTestAudioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake audio content"), 0o644); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}
