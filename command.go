// ABOUTME: Resolves the configured command template into an argument list.
// ABOUTME: Substitutes $THEME with DARK or LIGHT and splits on whitespace.

package main

import (
	"strings"
)

// ThemePlaceholder is replaced with Mode.CommandToken in the command template.
const ThemePlaceholder = "$THEME"

// ResolvedCommand is a program path followed by its arguments.
type ResolvedCommand []string

// Program returns the first token.
func (c ResolvedCommand) Program() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Args returns every token after the program.
func (c ResolvedCommand) Args() []string {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

func (c ResolvedCommand) String() string {
	return strings.Join(c, " ")
}

// ResolveCommand substitutes the mode into template and splits the result.
// There is no quoting: arguments containing spaces need a wrapper script.
func ResolveCommand(template string, mode Mode) (ResolvedCommand, error) {
	resolved := strings.ReplaceAll(template, ThemePlaceholder, mode.CommandToken())
	fields := strings.Fields(resolved)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	return ResolvedCommand(fields), nil
}
