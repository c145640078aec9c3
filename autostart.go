// ABOUTME: Platform-independent helpers for installing the daemon as a login item.
// ABOUTME: Resolves the running binary and builds the argument list the login item starts it with.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// daemonArgs returns the arguments a login item starts the daemon with.
func daemonArgs(tray bool) []string {
	args := []string{"run"}
	if tray {
		args = append(args, "--tray")
	}
	return args
}

// resolvedExecutable returns the real path of the running binary.
func resolvedExecutable() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("could not determine executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("could not resolve executable path: %w", err)
	}
	return execPath, nil
}

// commandLine joins an executable and its arguments, quoting parts that contain spaces.
func commandLine(execPath string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{execPath}, args...) {
		if strings.ContainsAny(p, " \t") {
			p = `"` + p + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}
