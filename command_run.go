// ABOUTME: The run command: the long-lived listener daemon, optionally with a tray icon.
// ABOUTME: Wires the config file, mode querier, signal sources and sinks into an orchestrator.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long outstanding webhook calls may delay exit.
const shutdownTimeout = 10 * time.Second

type daemonOptions struct {
	tray bool
	poll bool
}

func newRunCmd() *cobra.Command {
	var opts daemonOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Listen for appearance changes (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "show a menu bar / system tray icon")
	cmd.Flags().BoolVar(&opts.poll, "poll", false, "poll the mode instead of using native change notifications")
	return cmd
}

func runDaemon(ctx context.Context, opts daemonOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := NewFileConfigSource(configFile())
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	cfg := source.Snapshot()
	policy := cfg.EffectivePolicy()
	source.OnReload = func(next Config) {
		if next.EffectivePolicy() != policy {
			logger.Warn().Str("policy", string(next.EffectivePolicy())).Msg("Policy changes take effect after restart")
		}
	}
	if err := source.Watch(); err != nil {
		logger.Warn().Err(err).Msg("Config changes will not be picked up until restart")
	}
	defer source.Close()

	querier := newModeQuerier()

	var native SignalSource
	if opts.poll {
		native = &PollingSignalSource{Querier: querier, Interval: cfg.PollEvery()}
	} else {
		native = defaultSignalSource(querier, cfg)
	}
	manual := &ManualSignalSource{}

	var tray *TraySink
	var sink ResultSink = NopSink{}
	if opts.tray {
		tray = NewTraySink()
		sink = tray
	}

	orch := NewOrchestrator(source, querier, OrchestratorOptions{Policy: policy, Sink: sink})
	if err := orch.Start(MergeSignalSources(native, manual)); err != nil {
		return fmt.Errorf("could not subscribe to appearance changes: %w", err)
	}

	logger.Info().
		Str("config", source.Path()).
		Str("policy", string(policy)).
		Str("webhook", cfg.WebhookEndpoint()).
		Msg("Listening for appearance changes")

	if tray != nil {
		go func() {
			<-ctx.Done()
			tray.Quit()
		}()
		tray.Run(manual.Fire, stop)
	} else {
		<-ctx.Done()
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := orch.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Webhook calls abandoned at shutdown")
	}
	return nil
}
