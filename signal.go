// ABOUTME: Sources of the zero-payload "mode may have changed" signal.
// ABOUTME: Includes manual, polling, file-watch, fallback and merged sources.

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultPollInterval = 5 * time.Second

// SignalSource delivers appearance-change signals to a handler.
// Subscribe must not block; the handler may be called from any goroutine.
// The returned cancel releases the subscription and is safe to call twice.
type SignalSource interface {
	Subscribe(handler func()) (cancel func(), err error)
}

// ManualSignalSource fires on demand. Used for the tray's "Run now" item and in tests.
type ManualSignalSource struct {
	mu       sync.Mutex
	handlers map[int]func()
	nextID   int
}

// Subscribe registers handler until cancel is called.
func (s *ManualSignalSource) Subscribe(handler func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}, nil
}

// Fire calls every registered handler.
func (s *ManualSignalSource) Fire() {
	s.mu.Lock()
	handlers := make([]func(), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// Subscribers returns the number of active subscriptions.
func (s *ManualSignalSource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// PollingSignalSource queries the mode on an interval and fires when it changes.
// It is the fallback for platforms without a native change notification.
type PollingSignalSource struct {
	Querier  ModeQuerier
	Interval time.Duration
}

// Subscribe starts polling in the background.
func (s *PollingSignalSource) Subscribe(handler func()) (func(), error) {
	if s.Querier == nil {
		return nil, errors.New("polling signal source requires a querier")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	last, err := s.Querier.Query(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Initial mode query failed")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			mode, err := s.Querier.Query(ctx)
			if err != nil {
				logger.Debug().Err(err).Msg("Mode query failed")
				continue
			}
			if mode != last {
				last = mode
				handler()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// FileSignalSource fires whenever the file at Path is written, created or replaced.
// On macOS the appearance setting lives in ~/Library/Preferences/.GlobalPreferences.plist,
// which also holds unrelated settings. When Querier is set, a change to the file
// only fires if the queried mode differs from the last one seen.
type FileSignalSource struct {
	Path    string
	Querier ModeQuerier
}

// Subscribe watches the file's directory, since most writers replace the file
// atomically and a watch on the file itself would be lost after the first change.
func (s *FileSignalSource) Subscribe(handler func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	target := filepath.Clean(s.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("could not watch %s: %w", filepath.Dir(target), err)
	}

	ctx, stop := context.WithCancel(context.Background())
	var last Mode
	if s.Querier != nil {
		if last, err = s.Querier.Query(ctx); err != nil {
			logger.Debug().Err(err).Msg("Initial mode query failed")
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if s.Querier != nil {
					mode, err := s.Querier.Query(ctx)
					if err != nil {
						logger.Debug().Err(err).Str("path", target).Msg("Mode query failed")
						continue
					}
					if mode == last {
						continue
					}
					last = mode
				}
				handler()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Str("path", target).Msg("File watcher error")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			watcher.Close()
			<-done
		})
	}, nil
}

// FallbackSignalSource subscribes to Primary and, if that fails, to Fallback.
type FallbackSignalSource struct {
	Primary  SignalSource
	Fallback SignalSource
}

// Subscribe tries Primary first.
func (s *FallbackSignalSource) Subscribe(handler func()) (func(), error) {
	cancel, err := s.Primary.Subscribe(handler)
	if err == nil {
		return cancel, nil
	}
	logger.Warn().Err(err).Msg("Native appearance notifications unavailable, falling back")
	return s.Fallback.Subscribe(handler)
}

type mergedSignalSource []SignalSource

// MergeSignalSources combines sources into one; a signal from any of them is delivered.
func MergeSignalSources(sources ...SignalSource) SignalSource {
	return mergedSignalSource(sources)
}

// Subscribe subscribes to every source, undoing earlier subscriptions on failure.
func (m mergedSignalSource) Subscribe(handler func()) (func(), error) {
	cancels := make([]func(), 0, len(m))
	cancelAll := func() {
		for _, c := range cancels {
			c()
		}
	}

	for _, src := range m {
		if src == nil {
			continue
		}
		cancel, err := src.Subscribe(handler)
		if err != nil {
			cancelAll()
			return nil, err
		}
		cancels = append(cancels, cancel)
	}

	var once sync.Once
	return func() { once.Do(cancelAll) }, nil
}
