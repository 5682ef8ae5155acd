//go:build unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr starts the child in a new process group.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcess(proc *os.Process) error {
	return signalGroup(proc, unix.SIGTERM)
}

func killProcess(proc *os.Process) error {
	return signalGroup(proc, unix.SIGKILL)
}

// signalGroup signals the whole process group led by proc, falling back to
// the process itself when the group is already gone.
func signalGroup(proc *os.Process, sig unix.Signal) error {
	if proc == nil {
		return nil
	}

	err := unix.Kill(-proc.Pid, sig)
	if err == nil {
		return nil
	}

	if !stderrors.Is(err, unix.ESRCH) {
		return err
	}

	err = proc.Signal(sig)
	if err == nil || stderrors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}
