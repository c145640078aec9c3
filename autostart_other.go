// ABOUTME: Login item stubs for platforms without a supported service manager.
// ABOUTME: Install and uninstall report an error; status is always not installed.

//go:build !darwin && !linux && !windows

package main

import "errors"

var errAutostartUnsupported = errors.New("auto-start is not supported on this platform")

// AutostartPath is empty where auto-start is unsupported.
func AutostartPath() string { return "" }

func InstallAutostart(bool) error { return errAutostartUnsupported }

func UninstallAutostart() error { return errAutostartUnsupported }

func IsAutostartInstalled() bool { return false }
