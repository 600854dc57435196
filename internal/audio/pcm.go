package audio

import (
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
)

// Capture format shared by the source and the WAV writer.
const (
	SampleRate = 16000
	Channels   = 1
	ChunkSize  = 1024
	BitDepth   = 16
)

// pcmScale maps [-1, 1] onto the signed 16-bit range without overflow.
const pcmScale = 32767

// Format returns the go-audio description of captured audio.
func Format() *goaudio.Format {
	return &goaudio.Format{NumChannels: Channels, SampleRate: SampleRate}
}

// ChunkCount returns ceil(d * SampleRate / ChunkSize), the number of chunks
// read for a recording of duration d.
func ChunkCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	// One chunk spans exactly 64ms, so the division never overflows.
	perChunk := time.Second * ChunkSize / SampleRate
	return int((d-1)/perChunk + 1)
}

// ToPCM16 converts float samples to signed 16-bit PCM. Samples are clamped
// to [-1, 1] (NaN becomes 0), scaled by 32767 and truncated toward zero, so
// 0.5 becomes 16383.
func ToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case math.IsNaN(float64(s)):
			s = 0
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int16(s * pcmScale)
	}
	return out
}
