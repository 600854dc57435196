//go:build unix

package ffmpeg

import (
	"os/exec"
	"syscall"
)

// detach starts the child in its own process group so a terminal Ctrl+C
// reaches clipcap only. Capture children are stopped by their owner.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
