// ABOUTME: Entry point for themehook, which reacts to light/dark appearance changes.
// ABOUTME: Runs a user command and calls a webhook each time the desktop switches mode.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
