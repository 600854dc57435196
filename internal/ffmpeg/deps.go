package ffmpeg

import (
	"os"
	"os/exec"
)

// fileStater abstracts existence checks on the filesystem.
type fileStater interface {
	Stat(name string) (os.FileInfo, error)
}

// envProvider abstracts environment and PATH lookups.
type envProvider interface {
	Getenv(key string) string
	LookPath(file string) (string, error)
}

// Compile-time interface verification.
var (
	_ fileStater  = osFileStater{}
	_ envProvider = osEnvProvider{}
)

type osFileStater struct{}

func (osFileStater) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnvProvider) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
