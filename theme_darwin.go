// ABOUTME: macOS theme detection.
// ABOUTME: Checks AppleInterfaceStyle to determine dark/light mode.

//go:build darwin

package main

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

func newModeQuerier() ModeQuerier {
	return ModeQuerierFunc(queryAppleInterfaceStyle)
}

func queryAppleInterfaceStyle(ctx context.Context) (Mode, error) {
	cmd := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle")
	output, err := cmd.Output()
	if err != nil {
		// Property doesn't exist = light mode
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ModeLight, nil
		}
		return ModeLight, err
	}
	return ModeFromDark(strings.EqualFold(strings.TrimSpace(string(output)), "dark")), nil
}
