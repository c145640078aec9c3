// ABOUTME: Process handling for the executor on platforms without process groups.
// ABOUTME: Falls back to a file existence check and a hard kill.

//go:build !unix

package main

import (
	"fmt"
	"os"
	"os/exec"
)

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotExecutable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotExecutable, path)
	}
	return nil
}

func setProcessGroup(*exec.Cmd) {}

func terminate(p *os.Process) error {
	return p.Kill()
}
