// ABOUTME: The autostart command for starting the daemon on login.
// ABOUTME: Uses a LaunchAgent, systemd user unit or registry Run key depending on the platform.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting the daemon on login",
	}

	var tray bool
	install := &cobra.Command{
		Use:   "install",
		Short: "Start the daemon on login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := InstallAutostart(tray); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("Installed"), AutostartPath())
			return nil
		},
	}
	install.Flags().BoolVar(&tray, "tray", false, "start with the tray icon")

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop starting the daemon on login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := UninstallAutostart(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("Removed"))
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon starts on login",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if IsAutostartInstalled() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", color.GreenString("installed"), AutostartPath())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("not installed"))
		},
	}

	cmd.AddCommand(install, uninstall, status)
	return cmd
}
