//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// prepareCommand puts the spec command in its own process group so a timeout
// also kills the browsers and drivers it spawned.
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
