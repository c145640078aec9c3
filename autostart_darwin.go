// ABOUTME: macOS LaunchAgent that starts the theme listener on login.
// ABOUTME: Writes, loads and removes ~/Library/LaunchAgents/com.themehook.daemon.plist.

//go:build darwin

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

const launchAgentLabel = "com.themehook.daemon"

// AutostartPath returns where the LaunchAgent plist lives.
func AutostartPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "LaunchAgents", launchAgentLabel+".plist")
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>
    <key>ProcessType</key>
    <string>Interactive</string>
    <key>StandardOutPath</key>
    <string>{{.LogFile}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogFile}}</string>
</dict>
</plist>
`))

type launchAgent struct {
	Label          string
	ExecutablePath string
	Args           []string
	LogFile        string
}

// InstallAutostart writes the LaunchAgent and loads it with launchctl.
func InstallAutostart(tray bool) error {
	plistPath := AutostartPath()
	if plistPath == "" {
		return fmt.Errorf("could not determine LaunchAgent path")
	}

	execPath, err := resolvedExecutable()
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(plistPath), 0755); err != nil {
		return fmt.Errorf("could not create LaunchAgents directory: %w", err)
	}

	// A previous version may still be loaded
	_ = exec.Command("launchctl", "unload", plistPath).Run()

	f, err := os.Create(plistPath)
	if err != nil {
		return fmt.Errorf("could not create plist file: %w", err)
	}
	defer f.Close()

	agent := launchAgent{
		Label:          launchAgentLabel,
		ExecutablePath: execPath,
		Args:           daemonArgs(tray),
		LogFile:        filepath.Join(home, "Library", "Logs", "themehook.log"),
	}
	if err := plistTemplate.Execute(f, agent); err != nil {
		return fmt.Errorf("could not write plist file: %w", err)
	}

	if output, err := exec.Command("launchctl", "load", plistPath).CombinedOutput(); err != nil {
		return fmt.Errorf("could not load LaunchAgent: %w (output: %s)", err, string(output))
	}
	return nil
}

// UninstallAutostart unloads and removes the LaunchAgent.
func UninstallAutostart() error {
	plistPath := AutostartPath()
	if plistPath == "" {
		return fmt.Errorf("could not determine LaunchAgent path")
	}

	_ = exec.Command("launchctl", "unload", plistPath).Run()

	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove plist file: %w", err)
	}
	return nil
}

// IsAutostartInstalled reports whether the LaunchAgent plist exists.
func IsAutostartInstalled() bool {
	plistPath := AutostartPath()
	if plistPath == "" {
		return false
	}
	_, err := os.Stat(plistPath)
	return err == nil
}
