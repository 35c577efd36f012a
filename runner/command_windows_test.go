//go:build windows

package runner

import (
	"os/exec"
	"testing"
)

func TestPrepareCommand_Windows(t *testing.T) {
	cmd := exec.Command("echo", "hello")
	// Should not panic or error
	prepareCommand(cmd)

	if cmd.SysProcAttr != nil {
		t.Error("SysProcAttr should be left alone on Windows")
	}
}
