// ABOUTME: Windows theme detection.
// ABOUTME: Reads AppsUseLightTheme from the Personalize registry key.

//go:build windows

package main

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const personalizeKeyPath = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`

func newModeQuerier() ModeQuerier {
	return ModeQuerierFunc(queryAppsUseLightTheme)
}

func queryAppsUseLightTheme(context.Context) (Mode, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, personalizeKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return ModeLight, fmt.Errorf("could not open registry key: %w", err)
	}
	defer key.Close()

	light, _, err := key.GetIntegerValue("AppsUseLightTheme")
	if err != nil {
		// Value missing on older builds, which only had a light theme
		return ModeLight, nil
	}
	return ModeFromDark(light == 0), nil
}
