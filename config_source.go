// ABOUTME: Read-only configuration snapshots handed to each orchestration cycle.
// ABOUTME: FileConfigSource reloads the config file when it changes on disk.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// ConfigSource supplies an immutable Config snapshot per cycle.
type ConfigSource interface {
	Snapshot() Config
}

// StaticConfig is a ConfigSource that never changes.
type StaticConfig Config

// Snapshot returns the config.
func (c StaticConfig) Snapshot() Config {
	return Config(c)
}

// FileConfigSource serves the contents of a config file, with environment
// overrides applied, and keeps them current while Watch is active.
type FileConfigSource struct {
	path    string
	getenv  func(string) string
	current atomic.Pointer[Config]

	// OnReload, if set, is called after every successful reload.
	OnReload func(Config)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileConfigSource loads path once. A missing file yields an empty config.
func NewFileConfigSource(path string) (*FileConfigSource, error) {
	s := &FileConfigSource{path: filepath.Clean(path), getenv: os.Getenv}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the watched file path.
func (s *FileConfigSource) Path() string {
	return s.path
}

// Snapshot returns the latest successfully loaded config.
func (s *FileConfigSource) Snapshot() Config {
	if cfg := s.current.Load(); cfg != nil {
		return *cfg
	}
	return Config{}
}

// Reload re-reads the file. On a parse error the previous snapshot is kept.
func (s *FileConfigSource) Reload() error {
	cfg, err := LoadConfig(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = &Config{}, nil
	}
	if err != nil {
		return err
	}

	effective := cfg.WithEnv(s.getenv)
	s.current.Store(&effective)
	if s.OnReload != nil {
		s.OnReload(effective)
	}
	return nil
}

// Watch starts reloading the config whenever the file changes.
// The parent directory is created if it does not exist.
func (s *FileConfigSource) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create config watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.watchLoop(watcher, s.done)
	return nil
}

func (s *FileConfigSource) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warn().Err(err).Str("path", s.path).Msg("Keeping previous config")
				continue
			}
			logger.Info().Str("path", s.path).Msg("Config reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

// Close stops watching.
func (s *FileConfigSource) Close() error {
	s.mu.Lock()
	watcher, done := s.watcher, s.done
	s.watcher, s.done = nil, nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}
