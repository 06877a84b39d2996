package encoder

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup keeps terminal signals away from ffmpeg so shutdown is
// driven by Finish alone.
func detachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
