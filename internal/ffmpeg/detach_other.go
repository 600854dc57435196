//go:build !unix && !windows

package ffmpeg

import "os/exec"

func detach(*exec.Cmd) {}
