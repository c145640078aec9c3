// ABOUTME: Theme detection stub for platforms without a known appearance setting.
// ABOUTME: Always reports light mode.

//go:build !darwin && !linux && !windows

package main

import (
	"context"
	"fmt"
	"runtime"
)

func newModeQuerier() ModeQuerier {
	return ModeQuerierFunc(func(context.Context) (Mode, error) {
		return ModeLight, fmt.Errorf("appearance detection is not supported on %s", runtime.GOOS)
	})
}
