// ABOUTME: The webhook test command, for checking a URL before saving it.
// ABOUTME: Posts body=ThemeTest and prints the response.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test [url]",
		Short: "Send a test request to the webhook (default: the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var endpoint string
			if len(args) == 1 {
				endpoint = args[0]
			} else {
				source, err := NewFileConfigSource(configFile())
				if err != nil {
					return err
				}
				endpoint = source.Snapshot().WebhookEndpoint()
			}

			out, err := NewWebhookNotifier(nil).Test(cmd.Context(), endpoint)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "URL:      %s\n", endpoint)
			printWebhookOutcome(w, out)
			if !out.OK {
				return errCycleFailed
			}
			fmt.Fprintln(w, color.GreenString("Webhook works"))
			return nil
		},
	})
	return cmd
}
