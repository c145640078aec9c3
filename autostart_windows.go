// ABOUTME: Windows login item for the theme listener via the registry Run key.
// ABOUTME: Sets or removes the ThemeHook value under HKCU\Software\Microsoft\Windows\CurrentVersion\Run.

//go:build windows

package main

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath   = `Software\Microsoft\Windows\CurrentVersion\Run`
	runValueName = "ThemeHook"
)

// AutostartPath names the registry value that holds the login command.
func AutostartPath() string {
	return `HKCU\` + runKeyPath + `\` + runValueName
}

// InstallAutostart stores the daemon command line in the Run key.
func InstallAutostart(tray bool) error {
	execPath, err := resolvedExecutable()
	if err != nil {
		return err
	}

	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("could not open registry key: %w", err)
	}
	defer key.Close()

	if err := key.SetStringValue(runValueName, commandLine(execPath, daemonArgs(tray))); err != nil {
		return fmt.Errorf("could not set registry value: %w", err)
	}
	return nil
}

// UninstallAutostart deletes the Run key value.
func UninstallAutostart() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("could not open registry key: %w", err)
	}
	defer key.Close()

	if err := key.DeleteValue(runValueName); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("could not delete registry value: %w", err)
	}
	return nil
}

// IsAutostartInstalled reports whether the Run key value exists.
func IsAutostartInstalled() bool {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer key.Close()

	_, _, err = key.GetStringValue(runValueName)
	return err == nil
}
