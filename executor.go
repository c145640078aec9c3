// ABOUTME: Runs the resolved command as a child process with an optional timeout.
// ABOUTME: Captures stdout and stderr separately and reports an ExecutionOutcome.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"
)

// ExecStatus is the final state of one command execution.
type ExecStatus int

const (
	StatusSuccess ExecStatus = iota
	StatusNonZeroExit
	StatusLaunchFailed
	StatusTimedOut
	// StatusCanceled means the process was terminated because the caller's
	// context ended (daemon shutdown), not because of its own timeout.
	StatusCanceled
)

func (s ExecStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNonZeroExit:
		return "non-zero exit"
	case StatusLaunchFailed:
		return "launch failed"
	case StatusTimedOut:
		return "timed out"
	case StatusCanceled:
		return "canceled"
	}
	return fmt.Sprintf("ExecStatus(%d)", int(s))
}

// ExecutionOutcome describes how a command run ended.
type ExecutionOutcome struct {
	Status ExecStatus
	// ExitCode is the process exit code for StatusSuccess and StatusNonZeroExit, -1 otherwise.
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
	Duration time.Duration
}

// OK reports whether the command exited with status 0.
func (o ExecutionOutcome) OK() bool {
	return o.Status == StatusSuccess
}

const defaultKillGrace = 2 * time.Second

// Executor launches commands. The zero value is ready to use.
type Executor struct {
	// KillGrace is how long a terminated process may take to exit before it
	// is killed outright and its pipes are closed.
	KillGrace time.Duration
}

// NewExecutor creates an executor with the default kill grace period.
func NewExecutor() *Executor {
	return &Executor{KillGrace: defaultKillGrace}
}

func (e *Executor) killGrace() time.Duration {
	if e == nil || e.KillGrace <= 0 {
		return defaultKillGrace
	}
	return e.KillGrace
}

func launchFailed(err error, start time.Time) ExecutionOutcome {
	return ExecutionOutcome{
		Status:   StatusLaunchFailed,
		ExitCode: -1,
		Err:      err,
		Duration: time.Since(start),
	}
}

// Execute runs cmd and blocks until it exits or is terminated.
// A timeout <= 0 disables the deadline. Cancelling ctx terminates the process.
// Nothing is retried.
func (e *Executor) Execute(ctx context.Context, cmd ResolvedCommand, timeout time.Duration) ExecutionOutcome {
	start := time.Now()

	if len(cmd) == 0 {
		return launchFailed(ErrNoCommand, start)
	}
	program, err := filepath.Abs(cmd.Program())
	if err != nil {
		return launchFailed(fmt.Errorf("%w: %s: %v", ErrNotExecutable, cmd.Program(), err), start)
	}
	if err := checkExecutable(program); err != nil {
		return launchFailed(err, start)
	}

	// The deadline's timer is released by cancel as soon as Wait returns.
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	c := exec.CommandContext(runCtx, program, cmd.Args()...)
	var stdout, stderr bytes.Buffer
	// os/exec copies each pipe on its own goroutine, so a child filling both
	// streams cannot block on the one we are not reading.
	c.Stdout = &stdout
	c.Stderr = &stderr
	setProcessGroup(c)

	// terminated is set only if the signal reached a live process. If the
	// process already exited, Signal fails with os.ErrProcessDone and the
	// natural exit status stands.
	var terminated atomic.Bool
	c.Cancel = func() error {
		if err := terminate(c.Process); err != nil {
			return err
		}
		terminated.Store(true)
		return nil
	}
	c.WaitDelay = e.killGrace()

	if err := c.Start(); err != nil {
		return launchFailed(fmt.Errorf("could not start %s: %w", program, err), start)
	}

	waitErr := c.Wait()
	outcome := ExecutionOutcome{
		ExitCode: -1,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	switch {
	case terminated.Load() && ctx.Err() != nil:
		outcome.Status = StatusCanceled
		outcome.Err = ctx.Err()
	case terminated.Load():
		outcome.Status = StatusTimedOut
		outcome.Err = fmt.Errorf("%w after %s", ErrTimedOut, timeout)
	case c.ProcessState != nil && c.ProcessState.Success():
		outcome.Status = StatusSuccess
		outcome.ExitCode = 0
	case c.ProcessState != nil:
		outcome.Status = StatusNonZeroExit
		outcome.ExitCode = c.ProcessState.ExitCode()
		outcome.Err = waitErr
	default:
		outcome.Status = StatusLaunchFailed
		outcome.Err = waitErr
		if outcome.Err == nil {
			outcome.Err = errors.New("process state unavailable")
		}
	}

	return outcome
}
