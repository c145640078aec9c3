// ABOUTME: Linux theme detection and change notification via the XDG desktop portal.
// ABOUTME: Reads and watches org.freedesktop.appearance color-scheme over the session bus.

//go:build linux

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	portalDest          = "org.freedesktop.portal.Desktop"
	portalPath          = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	portalSettings      = "org.freedesktop.portal.Settings"
	appearanceNamespace = "org.freedesktop.appearance"
	colorSchemeKey      = "color-scheme"

	// color-scheme values: 0 no preference, 1 prefer dark, 2 prefer light
	colorSchemePreferDark = 1
)

func newModeQuerier() ModeQuerier {
	return ModeQuerierFunc(queryPortalColorScheme)
}

func queryPortalColorScheme(ctx context.Context) (Mode, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return ModeLight, fmt.Errorf("could not connect to session bus: %w", err)
	}

	obj := conn.Object(portalDest, portalPath)
	var value dbus.Variant
	err = obj.CallWithContext(ctx, portalSettings+".ReadOne", 0, appearanceNamespace, colorSchemeKey).Store(&value)
	if err != nil {
		// Portals older than version 2 only implement the deprecated Read
		if err := obj.CallWithContext(ctx, portalSettings+".Read", 0, appearanceNamespace, colorSchemeKey).Store(&value); err != nil {
			return ModeLight, fmt.Errorf("could not read %s.%s: %w", appearanceNamespace, colorSchemeKey, err)
		}
	}
	return colorSchemeMode(value), nil
}

// colorSchemeMode unwraps the (possibly nested) variant holding color-scheme.
func colorSchemeMode(v dbus.Variant) Mode {
	for {
		inner, ok := v.Value().(dbus.Variant)
		if !ok {
			break
		}
		v = inner
	}
	if scheme, ok := v.Value().(uint32); ok {
		return ModeFromDark(scheme == colorSchemePreferDark)
	}
	return ModeLight
}

// PortalSignalSource fires when the portal reports a color-scheme change.
type PortalSignalSource struct{}

// Subscribe opens a private session bus connection and forwards matching
// SettingChanged signals to handler until the returned cancel is called.
func (s *PortalSignalSource) Subscribe(handler func()) (func(), error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("could not connect to session bus: %w", err)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(portalPath),
		dbus.WithMatchInterface(portalSettings),
		dbus.WithMatchMember("SettingChanged"),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not subscribe to portal settings: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if isColorSchemeChange(sig) {
					handler()
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			conn.RemoveSignal(signals)
			conn.Close()
		})
	}, nil
}

func isColorSchemeChange(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != portalSettings+".SettingChanged" || len(sig.Body) < 2 {
		return false
	}
	namespace, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	return namespace == appearanceNamespace && key == colorSchemeKey
}

// defaultSignalSource prefers the portal and falls back to polling when no
// session bus is available (e.g. a bare X session).
func defaultSignalSource(querier ModeQuerier, cfg Config) SignalSource {
	return &FallbackSignalSource{
		Primary:  &PortalSignalSource{},
		Fallback: &PollingSignalSource{Querier: querier, Interval: cfg.PollEvery()},
	}
}
