// ABOUTME: Appearance mode model and the query interface used to read it.
// ABOUTME: Signals carry no payload, so every cycle asks a ModeQuerier for the mode.

package main

import (
	"context"
	"fmt"
	"strings"
)

// Mode is the desktop appearance setting being tracked.
type Mode int

const (
	ModeLight Mode = iota
	ModeDark
)

// ModeFromDark maps the boolean returned by platform queries to a Mode.
func ModeFromDark(dark bool) Mode {
	if dark {
		return ModeDark
	}
	return ModeLight
}

// IsDark reports whether m is ModeDark.
func (m Mode) IsDark() bool {
	return m == ModeDark
}

func (m Mode) String() string {
	if m == ModeDark {
		return "dark"
	}
	return "light"
}

// CommandToken is the text substituted for $THEME in the command template.
func (m Mode) CommandToken() string {
	if m == ModeDark {
		return "DARK"
	}
	return "LIGHT"
}

// WebhookValue is the value sent in the webhook's body field.
func (m Mode) WebhookValue() string {
	if m == ModeDark {
		return "Dark"
	}
	return "Light"
}

// ParseMode accepts any casing of "dark" or "light".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return ModeDark, nil
	case "light":
		return ModeLight, nil
	}
	return ModeLight, fmt.Errorf("unknown mode %q", s)
}

// MarshalText encodes the mode as "dark" or "light".
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes "dark" or "light" in any casing.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModeQuerier reads the current appearance mode from the desktop session.
type ModeQuerier interface {
	Query(ctx context.Context) (Mode, error)
}

// ModeQuerierFunc adapts a function to the ModeQuerier interface.
type ModeQuerierFunc func(ctx context.Context) (Mode, error)

// Query calls f(ctx).
func (f ModeQuerierFunc) Query(ctx context.Context) (Mode, error) {
	return f(ctx)
}

// FixedMode returns a querier that always reports m.
func FixedMode(m Mode) ModeQuerier {
	return ModeQuerierFunc(func(context.Context) (Mode, error) {
		return m, nil
	})
}
