// ABOUTME: The config command for viewing and editing the config file.
// ABOUTME: A running daemon picks up edits without a restart.

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd(), newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := NewFileConfigSource(configFile())
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), source.Path(), source.Snapshot())
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Change one setting. Keys: command, timeout, webhook, verbose, policy, poll-interval.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile()
			if err := setConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("Saved"), path)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configFile())
		},
	}
}

// setConfigValue loads path (or starts empty), applies one change and saves it.
func setConfigValue(path, key, value string) error {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = &Config{}, nil
	}
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}
	return nil
}

// configValue returns the display form of a setting.
func configValue(cfg Config, key string) string {
	switch key {
	case "command":
		if cfg.CommandTemplate() == "" {
			return color.YellowString("(none)")
		}
		return cfg.CommandTemplate()
	case "timeout":
		if cfg.Timeout() == 0 {
			return "none"
		}
		return cfg.Timeout().String()
	case "webhook":
		return cfg.WebhookEndpoint()
	case "verbose":
		return strconv.FormatBool(cfg.Verbose)
	case "policy":
		return string(cfg.EffectivePolicy())
	case "poll-interval":
		return cfg.PollEvery().String()
	}
	return ""
}

func printConfig(w io.Writer, path string, cfg Config) {
	fmt.Fprintf(w, "%s\n", color.CyanString(path))
	for _, key := range configKeys {
		fmt.Fprintf(w, "  %-14s %s\n", key, configValue(cfg, key))
	}
}
