// ABOUTME: Reacts to appearance-change signals by running the command and calling the webhook.
// ABOUTME: Owns the signal subscription, the reentrancy policy and shutdown of in-flight work.

package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cycle is one reaction to a single signal.
type Cycle struct {
	ID      string
	Mode    Mode
	Command ResolvedCommand
	Config  Config
	Started time.Time
}

// OrchestratorOptions configures an Orchestrator. Zero values get defaults.
type OrchestratorOptions struct {
	Policy   Policy
	Executor *Executor
	Notifier *WebhookNotifier
	Sink     ResultSink

	// SkipWebhook runs only the command, for modes learned from another machine.
	SkipWebhook bool
}

// Orchestrator runs one cycle per signal. With PolicySerial, signals that
// arrive while a cycle is running are counted and each one gets its own cycle
// afterwards, in order. With PolicyConcurrent every signal starts a cycle
// immediately.
type Orchestrator struct {
	config   ConfigSource
	querier  ModeQuerier
	executor *Executor
	notifier *WebhookNotifier
	sink     ResultSink
	policy   Policy
	hooks    bool

	// commandCtx ends when Close is called; webhookCtx only when Close gives up waiting.
	commandCtx     context.Context
	cancelCommands context.CancelFunc
	webhookCtx     context.Context
	cancelWebhooks context.CancelFunc

	mu          sync.Mutex
	running     bool
	pending     int
	closed      bool
	unsubscribe func()
	cycles      sync.WaitGroup
}

// NewOrchestrator creates an orchestrator reading config and mode fresh for every cycle.
func NewOrchestrator(config ConfigSource, querier ModeQuerier, opts OrchestratorOptions) *Orchestrator {
	o := &Orchestrator{
		config:   config,
		querier:  querier,
		executor: opts.Executor,
		notifier: opts.Notifier,
		sink:     opts.Sink,
		policy:   opts.Policy,
		hooks:    !opts.SkipWebhook,
	}
	if o.executor == nil {
		o.executor = NewExecutor()
	}
	if o.notifier == nil {
		o.notifier = NewWebhookNotifier(nil)
	}
	if o.sink == nil {
		o.sink = NopSink{}
	}
	if o.policy != PolicyConcurrent {
		o.policy = PolicySerial
	}
	o.commandCtx, o.cancelCommands = context.WithCancel(context.Background())
	o.webhookCtx, o.cancelWebhooks = context.WithCancel(context.Background())
	return o
}

// Policy returns the reentrancy policy in use.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Start subscribes to source and runs an initial cycle for the current mode.
func (o *Orchestrator) Start(source SignalSource) error {
	unsubscribe, err := source.Subscribe(o.Signal)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		unsubscribe()
		return ErrClosed
	}
	o.unsubscribe = unsubscribe
	o.mu.Unlock()

	o.Signal()
	return nil
}

// Signal handles one "mode may have changed" event. It never blocks.
func (o *Orchestrator) Signal() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	if o.policy == PolicyConcurrent {
		o.cycles.Add(1)
		go func() {
			defer o.cycles.Done()
			o.runCycle()
		}()
		return
	}

	if o.running {
		o.pending++
		logger.Debug().Int("pending", o.pending).Msg("Cycle in flight, signal queued")
		return
	}
	o.running = true
	o.cycles.Add(1)
	go o.drain()
}

// drain runs cycles until no signals are pending.
func (o *Orchestrator) drain() {
	defer o.cycles.Done()
	for {
		o.runCycle()

		o.mu.Lock()
		if o.pending == 0 || o.closed {
			o.running = false
			o.mu.Unlock()
			return
		}
		o.pending--
		o.mu.Unlock()
	}
}

// runCycle performs one full cycle and returns when its outcomes are reported.
func (o *Orchestrator) runCycle() {
	cfg := o.config.Snapshot()
	mode, queryErr := o.querier.Query(o.commandCtx)
	if queryErr != nil {
		mode = ModeLight
	}

	cycle := Cycle{
		ID:      uuid.NewString(),
		Mode:    mode,
		Config:  cfg,
		Started: time.Now(),
	}
	log := cycleLogger(cycle)
	if queryErr != nil {
		log.Warn().Err(queryErr).Msg("Could not query appearance mode, assuming light")
	}

	command, resolveErr := ResolveCommand(cfg.CommandTemplate(), mode)
	cycle.Command = command
	log.Info().Msg("Appearance changed")
	o.sink.ModeChanged(cycle)

	var wg sync.WaitGroup
	wg.Add(1)

	if o.hooks {
		wg.Add(1)
		endpoint := cfg.WebhookEndpoint()
		log.Debug().Str("url", endpoint).Str(webhookField, mode.WebhookValue()).Msg("Calling webhook")
		o.notifier.Notify(o.webhookCtx, mode, endpoint, func(out WebhookOutcome) {
			defer wg.Done()
			logWebhookOutcome(log, out)
			o.sink.WebhookFinished(cycle, out)
		})
	}

	go func() {
		defer wg.Done()
		var out ExecutionOutcome
		if resolveErr != nil {
			out = ExecutionOutcome{Status: StatusLaunchFailed, ExitCode: -1, Err: resolveErr}
		} else {
			log.Debug().Str("command", command.String()).Dur("timeout", cfg.Timeout()).Msg("Executing")
			out = o.executor.Execute(o.commandCtx, command, cfg.Timeout())
		}
		logCommandOutcome(log, out)
		o.sink.CommandFinished(cycle, out)
	}()

	wg.Wait()
}

func logCommandOutcome(log zerolog.Logger, out ExecutionOutcome) {
	if len(out.Stdout) > 0 {
		log.Debug().Bytes("stdout", out.Stdout).Msg("Command output")
	}
	if len(out.Stderr) > 0 {
		log.Debug().Bytes("stderr", out.Stderr).Msg("Command error output")
	}

	switch out.Status {
	case StatusSuccess:
		log.Info().Dur("took", out.Duration).Msg("Command succeeded")
	case StatusNonZeroExit:
		log.Warn().Int("exit_code", out.ExitCode).Dur("took", out.Duration).Msg("Command failed")
	case StatusLaunchFailed:
		if errors.Is(out.Err, ErrNoCommand) {
			log.Debug().Msg("No command configured")
			return
		}
		log.Warn().Err(out.Err).Msg("Command not started")
	default:
		log.Warn().Err(out.Err).Stringer("status", out.Status).Msg("Command terminated")
	}
}

func logWebhookOutcome(log zerolog.Logger, out WebhookOutcome) {
	if out.OK {
		log.Info().Int("status", out.StatusCode).Dur("took", out.Duration).Msg("Webhook called")
		log.Debug().Str("response", out.Body).Msg("Webhook response")
		return
	}
	log.Warn().Err(out.Err).Msg("Webhook request error")
	if out.Body != "" {
		log.Debug().Str("response", out.Body).Msg("Webhook response")
	}
}

// Close releases the subscription, terminates running commands and waits for
// in-flight cycles and webhook calls. If ctx ends first, webhook requests are
// cancelled and ctx's error is returned right away; cycles still reporting to
// a slow sink finish in the background. Signals still queued are discarded.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	discarded := o.pending
	o.pending = 0
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if discarded > 0 {
		logger.Warn().Int("signals", discarded).Msg("Discarding queued signals on shutdown")
	}
	o.cancelCommands()

	done := make(chan struct{})
	go func() {
		o.cycles.Wait()
		o.notifier.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancelWebhooks()
		return nil
	case <-ctx.Done():
		o.cancelWebhooks()
		return ctx.Err()
	}
}
