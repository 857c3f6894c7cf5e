//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// HideConsole puts cmd in its own process group so a terminal interrupt
// aimed at the daemon does not reach it; shutdown terminates it instead.
func HideConsole(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
