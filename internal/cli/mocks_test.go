package cli

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/alnah/clipcap/internal/audio"
	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/config"
	"github.com/alnah/clipcap/internal/pipeline"
	"github.com/alnah/clipcap/internal/transcribe"
	"github.com/alnah/clipcap/internal/video"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func(ctx context.Context) (string, error)
	CheckVersionFunc func(ctx context.Context, ffmpegPath string)

	mu           sync.Mutex
	resolveCalls int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	if m.CheckVersionFunc != nil {
		m.CheckVersionFunc(ctx, ffmpegPath)
	}
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	NewWhisperCppFunc func(bin, model string) (transcribe.Transcriber, error)
	transcriber       *mockTranscriber

	mu          sync.Mutex
	openAICalls []openAICall
	whisperBins []string
}

type openAICall struct {
	APIKey string
	Model  string
}

func (m *mockTranscriberFactory) NewOpenAI(apiKey, model string) transcribe.Transcriber {
	m.mu.Lock()
	m.openAICalls = append(m.openAICalls, openAICall{APIKey: apiKey, Model: model})
	m.mu.Unlock()
	return m.get()
}

func (m *mockTranscriberFactory) NewWhisperCpp(bin, model string) (transcribe.Transcriber, error) {
	m.mu.Lock()
	m.whisperBins = append(m.whisperBins, bin)
	m.mu.Unlock()
	if m.NewWhisperCppFunc != nil {
		return m.NewWhisperCppFunc(bin, model)
	}
	return m.get(), nil
}

func (m *mockTranscriberFactory) get() *mockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transcriber == nil {
		m.transcriber = &mockTranscriber{}
	}
	return m.transcriber
}

func (m *mockTranscriberFactory) OpenAICalls() []openAICall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]openAICall(nil), m.openAICalls...)
}

func (m *mockTranscriberFactory) WhisperBins() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.whisperBins...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string, opts transcribe.Options) (string, error)

	mu              sync.Mutex
	transcribeCalls []transcribeCall
}

type transcribeCall struct {
	AudioPath string
	Opts      transcribe.Options
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (string, error) {
	m.mu.Lock()
	m.transcribeCalls = append(m.transcribeCalls, transcribeCall{AudioPath: audioPath, Opts: opts})
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath, opts)
	}
	return "hello world", nil
}

func (m *mockTranscriber) TranscribeCalls() []transcribeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcribeCall(nil), m.transcribeCalls...)
}

// ---------------------------------------------------------------------------
// Mock RecorderFactory + recorders
// ---------------------------------------------------------------------------

type mockRecorderFactory struct {
	AudioErr error
	VideoErr error
	audio    *mockAudioRecorder
	video    *mockVideoRecorder

	mu           sync.Mutex
	audioDevices []string
	videoDevices []string
}

func (m *mockRecorderFactory) NewAudioRecorder(ffmpegPath, device string) (pipeline.AudioRecorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audioDevices = append(m.audioDevices, device)
	if m.AudioErr != nil {
		return nil, m.AudioErr
	}
	if m.audio == nil {
		m.audio = &mockAudioRecorder{}
	}
	return m.audio, nil
}

func (m *mockRecorderFactory) NewVideoRecorder(ffmpegPath, device string, onProgress func(video.Progress)) (pipeline.VideoRecorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoDevices = append(m.videoDevices, device)
	if m.VideoErr != nil {
		return nil, m.VideoErr
	}
	if m.video == nil {
		m.video = &mockVideoRecorder{}
	}
	m.video.onProgress = onProgress
	return m.video, nil
}

func (m *mockRecorderFactory) Devices() (audioDevices, videoDevices []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.audioDevices...), append([]string(nil), m.videoDevices...)
}

// mockAudioRecorder writes a placeholder file unless RecordFunc is set.
type mockAudioRecorder struct {
	RecordFunc func(ctx context.Context, d time.Duration, path string) (audio.Result, error)

	mu        sync.Mutex
	durations []time.Duration
}

func (m *mockAudioRecorder) Record(ctx context.Context, d time.Duration, path string) (audio.Result, error) {
	m.mu.Lock()
	m.durations = append(m.durations, d)
	m.mu.Unlock()

	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, d, path)
	}
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return audio.Result{}, err
	}
	return audio.Result{Path: path, Chunks: 110, Samples: 112000}, nil
}

func (m *mockAudioRecorder) Durations() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.durations...)
}

// mockVideoRecorder writes a placeholder file and reports one progress
// update unless RecordFunc is set.
type mockVideoRecorder struct {
	RecordFunc func(ctx context.Context, d time.Duration, path string) (video.Result, error)
	onProgress func(video.Progress)
}

func (m *mockVideoRecorder) Record(ctx context.Context, d time.Duration, path string) (video.Result, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, d, path)
	}
	target := video.TargetFrames(d)
	if m.onProgress != nil {
		m.onProgress(video.Progress{Frames: video.FPS, Target: target})
	}
	if err := os.WriteFile(path, []byte("ftyp"), 0o644); err != nil {
		return video.Result{}, err
	}
	return video.Result{
		Path:    path,
		Format:  video.FrameFormat{Width: 640, Height: 480},
		Frames:  target,
		Target:  target,
		Outcome: video.Completed,
	}, nil
}

// ---------------------------------------------------------------------------
// Mock DeviceListerFactory + DeviceLister
// ---------------------------------------------------------------------------

type mockDeviceListerFactory struct {
	lister *mockDeviceLister

	mu    sync.Mutex
	paths []string
}

func (m *mockDeviceListerFactory) NewDeviceLister(ffmpegPath string) DeviceLister {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, ffmpegPath)
	if m.lister == nil {
		m.lister = &mockDeviceLister{}
	}
	return m.lister
}

type mockDeviceLister struct {
	Audio    []capture.Device
	Video    []capture.Device
	AudioErr error
	VideoErr error
}

func (m *mockDeviceLister) Devices(_ context.Context, kind capture.Kind) ([]capture.Device, error) {
	if kind == capture.Video {
		return m.Video, m.VideoErr
	}
	return m.Audio, m.AudioErr
}

// ---------------------------------------------------------------------------
// Mock InterruptNotifier
// ---------------------------------------------------------------------------

// mockInterrupts hands out a cancellable child context. With Interrupted set
// it behaves as if Ctrl+C arrived before the command body ran.
type mockInterrupts struct {
	mu          sync.Mutex
	Interrupted bool
	notices     []string
	stops       int
}

func (m *mockInterrupts) Notify(parent context.Context, notice string) (context.Context, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice)
	ctx, cancel := context.WithCancel(parent)
	if m.Interrupted {
		cancel()
	}
	return ctx, func() {
		m.mu.Lock()
		m.stops++
		m.mu.Unlock()
		cancel()
	}
}

func (m *mockInterrupts) Notices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notices...)
}

func (m *mockInterrupts) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Compile-time interface checks.
var (
	_ FFmpegResolver         = (*mockFFmpegResolver)(nil)
	_ ConfigLoader           = (*mockConfigLoader)(nil)
	_ TranscriberFactory     = (*mockTranscriberFactory)(nil)
	_ transcribe.Transcriber = (*mockTranscriber)(nil)
	_ RecorderFactory        = (*mockRecorderFactory)(nil)
	_ DeviceListerFactory    = (*mockDeviceListerFactory)(nil)
	_ DeviceLister           = (*mockDeviceLister)(nil)
	_ InterruptNotifier      = (*mockInterrupts)(nil)
)

var errMock = errors.New("mock failure")
