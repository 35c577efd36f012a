//go:build windows

package runner

import (
	"os/exec"
)

// prepareCommand keeps the exec.CommandContext default on Windows, which kills
// only the spec process itself.
func prepareCommand(cmd *exec.Cmd) {}
