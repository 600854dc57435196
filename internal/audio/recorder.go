package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goaudio "github.com/go-audio/audio"

	"github.com/alnah/clipcap/internal/capture"
	"github.com/alnah/clipcap/internal/logging"
)

// Result describes a completed audio recording.
type Result struct {
	Path    string
	Chunks  int
	Samples int
}

// Recorder records a fixed duration of microphone audio to a WAV file.
type Recorder struct {
	opener SourceOpener
	logger *slog.Logger
	now    func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder creates a Recorder reading from opener.
func NewRecorder(opener SourceOpener, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		opener: opener,
		logger: logging.L("audio"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record captures ChunkCount(duration) chunks, converts them to 16-bit PCM
// and writes a mono 16 kHz WAV file at path. The file is only created once
// every chunk has been read.
func (r *Recorder) Record(ctx context.Context, duration time.Duration, path string) (res Result, err error) {
	if duration <= 0 || duration > capture.MaxDuration {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	chunks := ChunkCount(duration)
	started := r.now()

	src, err := r.opener.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = capture.Unavailable(err, "")
		}
		return Result{}, err
	}

	buf, readErr := r.acquire(src, chunks)
	closeErr := src.Close()
	if readErr != nil {
		res.Chunks = len(buf.Data) / ChunkSize
		return res, errors.Join(readErr, closeErr)
	}
	if closeErr != nil {
		r.logger.Warn("closing microphone", logging.KeyError, closeErr)
	}

	pcm := ToPCM16(buf.Data)
	if err := WriteWAV(path, pcm, buf.Format.SampleRate); err != nil {
		return Result{Chunks: chunks}, err
	}

	r.logger.Debug("audio saved",
		logging.KeyPath, path,
		"samples", len(pcm),
		logging.KeyDurationMs, r.now().Sub(started).Milliseconds(),
	)
	return Result{Path: path, Chunks: chunks, Samples: len(pcm)}, nil
}

// acquire reads chunks in order into one buffer. Any short read stops
// acquisition.
func (r *Recorder) acquire(src Source, chunks int) (*goaudio.Float32Buffer, error) {
	buf := &goaudio.Float32Buffer{
		Format:         Format(),
		Data:           make([]float32, 0, chunks*ChunkSize),
		SourceBitDepth: 32,
	}
	chunk := make([]float32, ChunkSize)
	for i := 0; i < chunks; i++ {
		n, err := src.ReadChunk(chunk)
		if n < ChunkSize {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return buf, fmt.Errorf("%w: chunk %d of %d returned %d of %d samples: %w",
				ErrCaptureInterrupted, i+1, chunks, n, ChunkSize, err)
		}
		buf.Data = append(buf.Data, chunk...)
	}
	return buf, nil
}
