// ABOUTME: macOS appearance change notification.
// ABOUTME: Watches the global preferences plist that stores AppleInterfaceStyle.

//go:build darwin

package main

import (
	"os"
	"path/filepath"
)

// globalPreferencesPath is rewritten by cfprefsd whenever AppleInterfaceStyle changes.
func globalPreferencesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Preferences", ".GlobalPreferences.plist")
}

func defaultSignalSource(querier ModeQuerier, cfg Config) SignalSource {
	polling := &PollingSignalSource{Querier: querier, Interval: cfg.PollEvery()}
	path := globalPreferencesPath()
	if path == "" {
		return polling
	}
	return &FallbackSignalSource{
		Primary:  &FileSignalSource{Path: path, Querier: querier},
		Fallback: polling,
	}
}
