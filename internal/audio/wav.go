package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the RIFF/WAVE format tag for integer PCM.
const wavFormatPCM = 1

// WriteWAV writes mono 16-bit PCM samples to a new WAV file at path.
// It fails if path already exists.
func WriteWAV(path string, pcm []int16, sampleRate int) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G302 G304 -- user-chosen output
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close audio file: %w", cerr))
		}
	}()

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}

	enc := wav.NewEncoder(f, sampleRate, BitDepth, Channels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
