// ABOUTME: Root cobra command and flags shared by every subcommand.
// ABOUTME: Sets up the logger before any subcommand runs; with no subcommand it runs the daemon.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	logFormat  string
	debug      bool
}

var globals globalOptions

// configFile returns the config path from --config, or the platform default.
func configFile() string {
	if globals.configPath != "" {
		return globals.configPath
	}
	return ConfigPath()
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "themehook",
		Short: "Run a command and call a webhook when the desktop switches between light and dark",
		Long: `themehook listens for appearance changes. On every change it runs the
configured command with $THEME replaced by DARK or LIGHT, and posts
body=Dark or body=Light to the configured webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = newLogger(os.Stderr, globals.logFormat, globals.debug)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), daemonOptions{})
		},
	}

	root.PersistentFlags().StringVar(&globals.configPath, "config", "", "config file (default "+ConfigPath()+")")
	root.PersistentFlags().StringVar(&globals.logFormat, "log-format", "console", "log format: console or json")
	root.PersistentFlags().BoolVar(&globals.debug, "debug", false, "log at debug level")

	root.AddCommand(newRunCmd())
	root.AddCommand(newOnceCmd())
	root.AddCommand(newModeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newWebhookCmd())
	root.AddCommand(newAutostartCmd())
	root.AddCommand(newRelayCmd())
	root.AddCommand(newWatchCmd())

	return root
}
