// ABOUTME: Tests for decoding the XDG desktop portal color-scheme setting.
// ABOUTME: Covers variant unwrapping and SettingChanged signal filtering.

//go:build linux

package main

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestColorSchemeMode(t *testing.T) {
	assert.Equal(t, ModeDark, colorSchemeMode(dbus.MakeVariant(uint32(1))))
	assert.Equal(t, ModeLight, colorSchemeMode(dbus.MakeVariant(uint32(0))))
	assert.Equal(t, ModeLight, colorSchemeMode(dbus.MakeVariant(uint32(2))))

	// The deprecated Read method wraps the value in a second variant.
	assert.Equal(t, ModeDark, colorSchemeMode(dbus.MakeVariant(dbus.MakeVariant(uint32(1)))))

	assert.Equal(t, ModeLight, colorSchemeMode(dbus.MakeVariant("dark")))
}

func TestIsColorSchemeChange(t *testing.T) {
	name := portalSettings + ".SettingChanged"

	assert.True(t, isColorSchemeChange(&dbus.Signal{
		Name: name,
		Body: []interface{}{appearanceNamespace, colorSchemeKey, dbus.MakeVariant(uint32(1))},
	}))

	assert.False(t, isColorSchemeChange(&dbus.Signal{
		Name: name,
		Body: []interface{}{appearanceNamespace, "accent-color", dbus.MakeVariant(uint32(1))},
	}))
	assert.False(t, isColorSchemeChange(&dbus.Signal{
		Name: name,
		Body: []interface{}{"org.gnome.desktop.interface", colorSchemeKey},
	}))
	assert.False(t, isColorSchemeChange(&dbus.Signal{Name: "org.example.Other", Body: []interface{}{appearanceNamespace, colorSchemeKey}}))
	assert.False(t, isColorSchemeChange(&dbus.Signal{Name: name, Body: []interface{}{appearanceNamespace}}))
	assert.False(t, isColorSchemeChange(nil))
}
