// ABOUTME: System tray (menu bar) display of the current mode and last cycle results.
// ABOUTME: Provides menu items for the mode, script status, webhook status, Run now and Quit.

package main

import (
	"sync"

	"fyne.io/systray"
)

// TraySink shows cycle outcomes in the system tray. Outcomes that arrive
// before the tray is ready are kept and shown once it is.
type TraySink struct {
	mu      sync.Mutex
	ready   bool
	mode    Mode
	script  string
	webhook string

	mMode, mScript, mWebhook *systray.MenuItem
}

// NewTraySink creates a tray sink; call Run to show it.
func NewTraySink() *TraySink {
	return &TraySink{
		script:  "Script not run yet",
		webhook: "Webhook not called yet",
	}
}

// Run shows the tray icon and blocks until Quit is called or the user picks Quit.
// It must be called from the main goroutine.
// Callbacks:
// - onRunNow: called when the user clicks Run now
// - onQuit: called when the user clicks Quit, before the tray exits
func (t *TraySink) Run(onRunNow func(), onQuit func()) {
	systray.Run(func() {
		systray.SetTooltip("themehook")

		mMode := systray.AddMenuItem(modeTitle(ModeLight), "Current appearance")
		mMode.Disable()
		systray.AddSeparator()
		mScript := systray.AddMenuItem("", "Result of the last script run")
		mScript.Disable()
		mWebhook := systray.AddMenuItem("", "Result of the last webhook call")
		mWebhook.Disable()
		systray.AddSeparator()
		mRun := systray.AddMenuItem("Run now", "Run the script and webhook for the current mode")
		mQuit := systray.AddMenuItem("Quit", "Quit themehook")

		t.mu.Lock()
		t.mMode, t.mScript, t.mWebhook = mMode, mScript, mWebhook
		t.ready = true
		t.applyLocked()
		t.mu.Unlock()

		// Handle menu clicks in background
		go func() {
			for {
				select {
				case <-mRun.ClickedCh:
					if onRunNow != nil {
						onRunNow()
					}
				case <-mQuit.ClickedCh:
					if onQuit != nil {
						onQuit()
					}
					systray.Quit()
					return
				}
			}
		}()
	}, func() {
		t.mu.Lock()
		t.ready = false
		t.mu.Unlock()
	})
}

// Quit closes the tray, making Run return.
func (t *TraySink) Quit() {
	systray.Quit()
}

func (t *TraySink) applyLocked() {
	if !t.ready {
		return
	}
	if t.mode.IsDark() {
		systray.SetTitle("☾")
	} else {
		systray.SetTitle("☀")
	}
	t.mMode.SetTitle(modeTitle(t.mode))
	t.mScript.SetTitle(t.script)
	t.mWebhook.SetTitle(t.webhook)
}

func (t *TraySink) ModeChanged(c Cycle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = c.Mode
	t.applyLocked()
}

func (t *TraySink) CommandFinished(_ Cycle, out ExecutionOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script = commandStatusText(out)
	t.applyLocked()
}

func (t *TraySink) WebhookFinished(_ Cycle, out WebhookOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.webhook = webhookStatusText(out)
	t.applyLocked()
}
