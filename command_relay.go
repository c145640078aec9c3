// ABOUTME: The relay and watch commands, for following one machine's mode from others.
// ABOUTME: relay receives webhooks and fans them out; watch follows a relay and can run the local command.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	defaultRelayPort = "9876"
	envRelayPort     = "THEMEHOOK_RELAY_PORT"
	envRelaySecret   = "THEMEHOOK_RELAY_SECRET"
)

func newRelayCmd() *cobra.Command {
	var port, secret string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Receive webhooks and broadcast the mode to watchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				if env := os.Getenv(envRelayPort); env != "" {
					port = env
				}
			}
			if secret == "" {
				secret = os.Getenv(envRelaySecret)
			}
			if secret == "" {
				return fmt.Errorf("relay requires --secret or %s", envRelaySecret)
			}
			return runRelay(cmd.Context(), ":"+port, secret)
		},
	}
	cmd.Flags().StringVar(&port, "port", defaultRelayPort, "port to listen on (or "+envRelayPort+")")
	cmd.Flags().StringVar(&secret, "secret", "", "shared secret for authentication (or "+envRelaySecret+")")
	return cmd
}

func runRelay(ctx context.Context, addr, secret string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := NewRelayServer(secret)
	srv := &http.Server{
		Addr:              addr,
		Handler:           relay.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().Str("addr", addr).Msg("Relay listening")
	logger.Info().Msg("  POST /hook  - webhook target, body=Dark|Light (requires auth)")
	logger.Info().Msg("  GET  /ws    - WebSocket for watchers (requires auth)")
	logger.Info().Msg("  GET  /state - last received mode (requires auth)")

	select {
	case err := <-errCh:
		return fmt.Errorf("relay failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	relay.CloseAll()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newWatchCmd() *cobra.Command {
	var secret, name string
	var runCommand bool
	cmd := &cobra.Command{
		Use:   "watch <ws-url>",
		Short: "Follow a relay and print mode changes",
		Long: `Follow a relay and print mode changes. With --run, the configured command
is also run for each received mode, so this machine follows the other's
appearance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv(envRelaySecret)
			}
			if name == "" {
				name, _ = os.Hostname()
			}

			var config ConfigSource
			if runCommand {
				source, err := NewFileConfigSource(configFile())
				if err != nil {
					return fmt.Errorf("could not load config: %w", err)
				}
				if err := source.Watch(); err != nil {
					logger.Warn().Err(err).Msg("Config changes will not be picked up until restart")
				}
				defer source.Close()
				config = source
			}
			return runWatch(cmd.Context(), args[0], secret, name, config)
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "shared secret for authentication (or "+envRelaySecret+")")
	cmd.Flags().StringVar(&name, "name", "", "name reported to the relay (default: hostname)")
	cmd.Flags().BoolVar(&runCommand, "run", false, "run the configured command for each received mode")
	return cmd
}

func runWatch(ctx context.Context, url, secret, name string, config ConfigSource) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var follower *relayFollower
	if config != nil {
		follower = newRelayFollower(config, &watchSink{w: os.Stdout})
	}

	client := NewRelayClient(url, secret, name, func(ev ModeEvent) {
		fmt.Printf("%s %s (from %s)\n",
			ev.ReceivedAt.Local().Format(time.TimeOnly), color.CyanString(modeTitle(ev.Mode)), ev.Source)
		if follower != nil {
			follower.HandleEvent(ev)
		}
	})
	client.OnConnect = func() {
		logger.Info().Str("url", url).Msg("Connected to relay")
	}
	client.OnDisconnect = func(err error) {
		logger.Warn().Err(err).Str("url", url).Msg("Lost connection to relay")
	}
	client.Run(ctx)

	if follower == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := follower.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Commands still reporting at shutdown")
	}
	return nil
}

// relayFollower runs the local command for each mode received from a relay.
// Events are queued, never dropped, and run one at a time in arrival order.
// The webhook is not called, so a machine that both watches and reports
// cannot echo a mode back to the relay.
type relayFollower struct {
	mu     sync.Mutex
	modes  []Mode
	latest Mode
	orch   *Orchestrator
}

func newRelayFollower(config ConfigSource, sink ResultSink) *relayFollower {
	f := &relayFollower{}
	f.orch = NewOrchestrator(config, ModeQuerierFunc(f.next), OrchestratorOptions{
		Policy:      PolicySerial,
		Sink:        sink,
		SkipWebhook: true,
	})
	return f
}

// HandleEvent queues a cycle for the event's mode. It never blocks.
func (f *relayFollower) HandleEvent(ev ModeEvent) {
	f.mu.Lock()
	f.modes = append(f.modes, ev.Mode)
	f.mu.Unlock()
	f.orch.Signal()
}

// next hands each serial cycle the mode of the event that queued it.
func (f *relayFollower) next(context.Context) (Mode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.modes) > 0 {
		f.latest = f.modes[0]
		f.modes = f.modes[1:]
	}
	return f.latest, nil
}

// Close terminates a running command and waits for it like Orchestrator.Close.
func (f *relayFollower) Close(ctx context.Context) error {
	return f.orch.Close(ctx)
}

// watchSink prints command outcomes as they arrive.
type watchSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *watchSink) ModeChanged(Cycle) {}

func (s *watchSink) CommandFinished(_ Cycle, out ExecutionOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	printCommandOutcome(s.w, out)
}

func (s *watchSink) WebhookFinished(Cycle, WebhookOutcome) {}
