//go:build !unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
)

func setProcAttr(_ *exec.Cmd) {}

func terminateProcess(proc *os.Process) error {
	if proc == nil {
		return nil
	}

	// Interrupt is unsupported on Windows; the caller escalates to Kill.
	if err := proc.Signal(os.Interrupt); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}

func killProcess(proc *os.Process) error {
	if proc == nil {
		return nil
	}

	if err := proc.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}
