// ABOUTME: Configuration file handling for persistent settings.
// ABOUTME: Stores the command template, timeout, webhook URL, verbosity and reentrancy policy.

package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultWebhookURL is used when no webhook URL is configured or it does not parse.
const DefaultWebhookURL = "http://localhost:80"

// Policy decides what happens when a signal arrives while a cycle is in flight.
type Policy string

const (
	// PolicySerial runs one cycle at a time and queues signals that arrive meanwhile.
	PolicySerial Policy = "serial"
	// PolicyConcurrent starts a new cycle for every signal immediately.
	PolicyConcurrent Policy = "concurrent"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySerial, PolicyConcurrent:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown policy %q (want %q or %q)", ErrConfigInvalid, s, PolicySerial, PolicyConcurrent)
}

// Config holds the persistent configuration for the daemon.
type Config struct {
	Command             string `json:"command,omitempty"`
	TimeoutSeconds      int    `json:"timeoutSeconds,omitempty"`
	WebhookURL          string `json:"webhookUrl,omitempty"`
	Verbose             bool   `json:"verbose,omitempty"`
	Policy              Policy `json:"policy,omitempty"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds,omitempty"`
}

// CommandTemplate returns the command line containing the $THEME placeholder.
func (c Config) CommandTemplate() string {
	return strings.TrimSpace(c.Command)
}

// Timeout returns the command timeout; zero means no timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WebhookEndpoint returns the configured URL, or DefaultWebhookURL when unset or invalid.
func (c Config) WebhookEndpoint() string {
	return normalizeEndpoint(c.WebhookURL)
}

// EffectivePolicy returns the configured policy, defaulting to PolicySerial.
func (c Config) EffectivePolicy() Policy {
	if p, err := ParsePolicy(string(c.Policy)); err == nil {
		return p
	}
	return PolicySerial
}

// PollEvery returns the polling interval for the polling signal source.
func (c Config) PollEvery() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return defaultPollInterval
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// configKeys lists the keys accepted by Set, in display order.
var configKeys = []string{"command", "timeout", "webhook", "verbose", "policy", "poll-interval"}

// Set updates a single field from its string form, as typed on the command line.
func (c *Config) Set(key, value string) error {
	switch key {
	case "command":
		c.Command = value
	case "timeout":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: timeout must be a non-negative number of seconds", ErrConfigInvalid)
		}
		c.TimeoutSeconds = n
	case "webhook":
		if value != "" {
			u, err := url.Parse(value)
			if err != nil || u.Scheme == "" {
				return fmt.Errorf("%w: %q", ErrInvalidURL, value)
			}
		}
		c.WebhookURL = value
	case "verbose":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: verbose must be true or false", ErrConfigInvalid)
		}
		c.Verbose = b
	case "policy":
		p, err := ParsePolicy(value)
		if err != nil {
			return err
		}
		c.Policy = p
	case "poll-interval":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: poll-interval must be a non-negative number of seconds", ErrConfigInvalid)
		}
		c.PollIntervalSeconds = n
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(configKeys, ", "))
	}
	return nil
}

// Environment variables override the file, like the daemon's CLI flags did.
const (
	envCommand = "THEMEHOOK_COMMAND"
	envTimeout = "THEMEHOOK_TIMEOUT"
	envWebhook = "THEMEHOOK_WEBHOOK_URL"
	envVerbose = "THEMEHOOK_VERBOSE"
)

// WithEnv returns a copy of c with environment overrides applied.
// Unparsable values are ignored.
func (c Config) WithEnv(getenv func(string) string) Config {
	if v := getenv(envCommand); v != "" {
		c.Command = v
	}
	if v := getenv(envTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.TimeoutSeconds = n
		}
	}
	if v := getenv(envWebhook); v != "" {
		c.WebhookURL = v
	}
	if v := getenv(envVerbose); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Verbose = b
		}
	}
	return c
}

// ConfigPath returns the platform-appropriate path for the config file.
func ConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "themehook", "config.json")
}

// LoadConfig reads the configuration from the given path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the configuration to the given path, creating directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
