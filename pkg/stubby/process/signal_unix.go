//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

var signalTerm os.Signal = syscall.SIGTERM

func signalTermName() string {
	return "SIGTERM"
}

// processRunning checks if a process is running using signal 0.
func processRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// setDetached puts the child in its own process group so terminal signals
// aimed at stubctl do not reach it.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
