// ABOUTME: Error values shared by the executor, webhook notifier and config layer.
// ABOUTME: Failures are reported as outcome values; these make them comparable with errors.Is.

package main

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigInvalid is returned when the command template cannot be resolved.
	ErrConfigInvalid = errors.New("invalid configuration")
	// ErrNoCommand means no command template is configured.
	ErrNoCommand = fmt.Errorf("%w: no command configured", ErrConfigInvalid)
	// ErrNotExecutable means the first command token is not an executable file.
	ErrNotExecutable = errors.New("not an executable file")
	// ErrTimedOut is attached to outcomes of commands terminated at their deadline.
	ErrTimedOut = errors.New("command timed out")
	// ErrInvalidURL is returned for webhook URLs without a scheme.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrClosed is returned when starting an orchestrator that was already closed.
	ErrClosed = errors.New("orchestrator closed")
)

// WebhookStatusError is returned when the webhook endpoint answers with a non-2xx status.
type WebhookStatusError struct {
	StatusCode int
	Body       string
}

func (e *WebhookStatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}
