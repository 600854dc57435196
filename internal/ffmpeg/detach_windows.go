//go:build windows

package ffmpeg

import (
	"os/exec"
	"syscall"
)

// detach starts the child in a new process group so console Ctrl+C
// events are not delivered to it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
