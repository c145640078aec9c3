// ABOUTME: Result sinks that receive cycle outcomes for display.
// ABOUTME: Includes channel, multi and no-op sinks plus the status texts shown in the tray.

package main

import (
	"errors"
	"fmt"
)

// ResultSink receives the outcomes of each cycle. Within one cycle
// CommandFinished and WebhookFinished may be called concurrently and in
// either order, so implementations must be safe for concurrent use.
type ResultSink interface {
	ModeChanged(c Cycle)
	CommandFinished(c Cycle, out ExecutionOutcome)
	WebhookFinished(c Cycle, out WebhookOutcome)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) ModeChanged(Cycle)                       {}
func (NopSink) CommandFinished(Cycle, ExecutionOutcome) {}
func (NopSink) WebhookFinished(Cycle, WebhookOutcome)   {}

// MultiSink forwards to each sink in order.
type MultiSink []ResultSink

func (m MultiSink) ModeChanged(c Cycle) {
	for _, s := range m {
		s.ModeChanged(c)
	}
}

func (m MultiSink) CommandFinished(c Cycle, out ExecutionOutcome) {
	for _, s := range m {
		s.CommandFinished(c, out)
	}
}

func (m MultiSink) WebhookFinished(c Cycle, out WebhookOutcome) {
	for _, s := range m {
		s.WebhookFinished(c, out)
	}
}

// CommandReport pairs a command outcome with its cycle.
type CommandReport struct {
	Cycle   Cycle
	Outcome ExecutionOutcome
}

// WebhookReport pairs a webhook outcome with its cycle.
type WebhookReport struct {
	Cycle   Cycle
	Outcome WebhookOutcome
}

// ChannelSink exposes the two outcome streams as channels. Sends block once
// a buffer is full, which stalls the cycle, so consumers must keep reading.
type ChannelSink struct {
	Commands chan CommandReport
	Webhooks chan WebhookReport
}

// NewChannelSink creates a sink whose channels hold buffer reports each.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		Commands: make(chan CommandReport, buffer),
		Webhooks: make(chan WebhookReport, buffer),
	}
}

func (s *ChannelSink) ModeChanged(Cycle) {}

func (s *ChannelSink) CommandFinished(c Cycle, out ExecutionOutcome) {
	s.Commands <- CommandReport{Cycle: c, Outcome: out}
}

func (s *ChannelSink) WebhookFinished(c Cycle, out WebhookOutcome) {
	s.Webhooks <- WebhookReport{Cycle: c, Outcome: out}
}

func modeTitle(m Mode) string {
	if m.IsDark() {
		return "Dark theme"
	}
	return "Light theme"
}

func commandStatusText(out ExecutionOutcome) string {
	switch out.Status {
	case StatusSuccess:
		return "Script ran successfully"
	case StatusNonZeroExit:
		return fmt.Sprintf("Script failed with status %d", out.ExitCode)
	case StatusTimedOut:
		return "Script timed out"
	case StatusCanceled:
		return "Script canceled"
	}
	if errors.Is(out.Err, ErrNoCommand) {
		return "No script configured"
	}
	return "Error running script"
}

func webhookStatusText(out WebhookOutcome) string {
	if out.OK {
		return "Webhook called successfully"
	}
	var statusErr *WebhookStatusError
	if errors.As(out.Err, &statusErr) {
		return fmt.Sprintf("Webhook returned status %d", statusErr.StatusCode)
	}
	return "Webhook request error"
}
