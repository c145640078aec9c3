// ABOUTME: Tests for config snapshots and hot reload of the config file.
// ABOUTME: Covers missing files, environment overrides, parse errors and fsnotify reloads.

package main

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileConfigSourceMissingFile(t *testing.T) {
	t.Setenv(envCommand, "")
	s, err := NewFileConfigSource(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, s.Snapshot())
}

func TestFileConfigSourceAppliesEnv(t *testing.T) {
	t.Setenv(envCommand, "/bin/echo from-env")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, (&Config{Command: "/bin/echo from-file", TimeoutSeconds: 3}).Save(path))

	s, err := NewFileConfigSource(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/echo from-env", s.Snapshot().Command)
	assert.Equal(t, 3, s.Snapshot().TimeoutSeconds)
}

func TestFileConfigSourceInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := NewFileConfigSource(path)
	assert.Error(t, err)
}

func TestFileConfigSourceReloadKeepsPreviousOnError(t *testing.T) {
	t.Setenv(envCommand, "")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, (&Config{Command: "/bin/echo one"}).Save(path))

	s, err := NewFileConfigSource(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	assert.Error(t, s.Reload())
	assert.Equal(t, "/bin/echo one", s.Snapshot().Command)
}

func TestFileConfigSourceWatchReloads(t *testing.T) {
	t.Setenv(envCommand, "")
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	s, err := NewFileConfigSource(path)
	require.NoError(t, err)

	var reloads atomic.Int32
	s.OnReload = func(Config) { reloads.Add(1) }

	require.NoError(t, s.Watch())
	defer s.Close()

	require.NoError(t, (&Config{Command: "/bin/echo two", Verbose: true}).Save(path))

	require.Eventually(t, func() bool {
		return s.Snapshot().Command == "/bin/echo two"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, s.Snapshot().Verbose)
	assert.Positive(t, reloads.Load())
}

func TestFileConfigSourceCloseIsIdempotent(t *testing.T) {
	s, err := NewFileConfigSource(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	require.NoError(t, s.Watch())
	require.NoError(t, s.Watch())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestStaticConfig(t *testing.T) {
	cfg := Config{Command: "/bin/true"}
	assert.Equal(t, cfg, StaticConfig(cfg).Snapshot())
}
