// ABOUTME: The once and mode commands: one cycle on demand, and the current mode.
// ABOUTME: once reports both outcomes and exits non-zero when either failed.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errCycleFailed = errors.New("cycle failed")

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode",
		Short: "Print the current appearance mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			mode, err := newModeQuerier().Query(ctx)
			if err != nil {
				return fmt.Errorf("could not query appearance mode: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}
}

func newOnceCmd() *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run the command and webhook once for the current mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := NewFileConfigSource(configFile())
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}

			querier := newModeQuerier()
			if modeFlag != "" {
				mode, err := ParseMode(modeFlag)
				if err != nil {
					return err
				}
				querier = FixedMode(mode)
			}

			return runOnce(cmd.Context(), cmd.OutOrStdout(), source, querier)
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "", "use this mode (dark or light) instead of querying it")
	return cmd
}

// runOnce runs a single cycle and prints its outcomes.
func runOnce(ctx context.Context, w io.Writer, config ConfigSource, querier ModeQuerier) error {
	sink := NewChannelSink(1)
	orch := NewOrchestrator(config, querier, OrchestratorOptions{Sink: sink})
	if err := orch.Start(&ManualSignalSource{}); err != nil {
		return err
	}

	var (
		cmdReport  CommandReport
		hookReport WebhookReport
	)
	for got := 0; got < 2; got++ {
		select {
		case cmdReport = <-sink.Commands:
		case hookReport = <-sink.Webhooks:
		case <-ctx.Done():
			_ = orch.Close(context.Background())
			return ctx.Err()
		}
	}
	if err := orch.Close(ctx); err != nil {
		return err
	}

	fmt.Fprintf(w, "Mode:     %s\n", color.CyanString(modeTitle(cmdReport.Cycle.Mode)))
	printCommandOutcome(w, cmdReport.Outcome)
	printWebhookOutcome(w, hookReport.Outcome)

	if !cmdReport.Outcome.OK() && !errors.Is(cmdReport.Outcome.Err, ErrNoCommand) {
		return errCycleFailed
	}
	if !hookReport.Outcome.OK {
		return errCycleFailed
	}
	return nil
}

func printCommandOutcome(w io.Writer, out ExecutionOutcome) {
	text := commandStatusText(out)
	switch {
	case out.OK():
		text = color.GreenString(text)
	case errors.Is(out.Err, ErrNoCommand):
		text = color.YellowString(text)
	default:
		text = color.RedString(text)
	}
	fmt.Fprintf(w, "Script:   %s\n", text)
	if out.Err != nil && !errors.Is(out.Err, ErrNoCommand) {
		fmt.Fprintf(w, "          %s\n", out.Err)
	}
	if len(out.Stdout) > 0 {
		fmt.Fprintf(w, "  stdout: %s\n", out.Stdout)
	}
	if len(out.Stderr) > 0 {
		fmt.Fprintf(w, "  stderr: %s\n", out.Stderr)
	}
}

func printWebhookOutcome(w io.Writer, out WebhookOutcome) {
	if out.OK {
		fmt.Fprintf(w, "Webhook:  %s\n", color.GreenString(webhookStatusText(out)))
	} else {
		fmt.Fprintf(w, "Webhook:  %s\n", color.RedString(webhookStatusText(out)))
		if out.Err != nil {
			fmt.Fprintf(w, "          %s\n", out.Err)
		}
	}
	if out.Body != "" {
		fmt.Fprintf(w, "Response: %s\n", out.Body)
	}
}
