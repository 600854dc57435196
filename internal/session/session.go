// Package session names the artifacts of one recording run.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TokenLayout formats the wall-clock part of a session token.
const TokenLayout = "20060102_150405"

// Session holds the artifact paths for one run. It is immutable once created.
type Session struct {
	Token        string
	VideoPath    string
	AudioPath    string
	CaptionsPath string
}

// Paths returns the three artifact paths in capture order.
func (s Session) Paths() []string {
	return []string{s.VideoPath, s.AudioPath, s.CaptionsPath}
}

// New derives a session from now, placing artifacts in dir. If any artifact
// for a token already exists, a numeric suffix (_2, _3, ...) is appended
// until all three names are free. exists defaults to an os.Stat check.
func New(now time.Time, dir string, exists func(path string) bool) Session {
	if exists == nil {
		exists = fileExists
	}
	base := now.Format(TokenLayout)
	s := forToken(base, dir)
	for n := 2; anyExists(s, exists); n++ {
		s = forToken(fmt.Sprintf("%s_%d", base, n), dir)
	}
	return s
}

// ForAudio returns the captions path for an existing audio file named
// audio_<token>.wav; other names use the file's base name as the token.
func ForAudio(audioPath string) Session {
	dir := filepath.Dir(audioPath)
	name := filepath.Base(audioPath)
	token := strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name)), "audio_")
	s := forToken(token, dir)
	s.AudioPath = audioPath
	return s
}

func forToken(token, dir string) Session {
	return Session{
		Token:        token,
		VideoPath:    filepath.Join(dir, "video_"+token+".mp4"),
		AudioPath:    filepath.Join(dir, "audio_"+token+".wav"),
		CaptionsPath: filepath.Join(dir, "captions_"+token+".txt"),
	}
}

func anyExists(s Session, exists func(string) bool) bool {
	for _, p := range s.Paths() {
		if exists(p) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
