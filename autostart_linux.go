// ABOUTME: systemd user unit that starts the theme listener with the graphical session.
// ABOUTME: Writes, enables and removes ~/.config/systemd/user/themehook.service.

//go:build linux

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

const serviceName = "themehook.service"

// AutostartPath returns where the systemd unit lives.
func AutostartPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "systemd", "user", serviceName)
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=themehook - run a command when the desktop switches between light and dark
PartOf=graphical-session.target
After=graphical-session.target

[Service]
Type=simple
ExecStart={{.CommandLine}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=graphical-session.target
`))

func systemctl(args ...string) error {
	out, err := exec.Command("systemctl", append([]string{"--user"}, args...)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %v: %w (output: %s)", args, err, string(out))
	}
	return nil
}

// InstallAutostart writes the unit, then enables and starts it.
func InstallAutostart(tray bool) error {
	unitPath := AutostartPath()
	if unitPath == "" {
		return fmt.Errorf("could not determine service path")
	}

	execPath, err := resolvedExecutable()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
		return fmt.Errorf("could not create service directory: %w", err)
	}

	_ = systemctl("stop", serviceName)

	f, err := os.Create(unitPath)
	if err != nil {
		return fmt.Errorf("could not create service file: %w", err)
	}
	err = unitTemplate.Execute(f, struct{ CommandLine string }{commandLine(execPath, daemonArgs(tray))})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("could not write service file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", serviceName)
}

// UninstallAutostart stops, disables and removes the unit.
func UninstallAutostart() error {
	unitPath := AutostartPath()
	if unitPath == "" {
		return fmt.Errorf("could not determine service path")
	}

	_ = systemctl("disable", "--now", serviceName)

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove service file: %w", err)
	}

	_ = systemctl("daemon-reload")
	return nil
}

// IsAutostartInstalled reports whether the unit file exists.
func IsAutostartInstalled() bool {
	unitPath := AutostartPath()
	if unitPath == "" {
		return false
	}
	_, err := os.Stat(unitPath)
	return err == nil
}
