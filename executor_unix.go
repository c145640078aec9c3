// ABOUTME: Unix process handling for the executor.
// ABOUTME: Checks execute permission with access(2) and signals the child's process group.

//go:build unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// checkExecutable verifies the current user may execute path.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotExecutable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotExecutable, path)
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotExecutable, path, err)
	}
	return nil
}

// setProcessGroup puts the child in a new process group so that anything it
// spawns is terminated with it.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate sends SIGTERM to the process and then to its group. The leader
// is signalled first through os.Process, which refuses once the process has
// been reaped, so a recycled pid is never signalled.
func terminate(p *os.Process) error {
	if err := p.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	_ = unix.Kill(-p.Pid, unix.SIGTERM)
	return nil
}
