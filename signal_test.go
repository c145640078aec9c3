// ABOUTME: Tests for the signal sources.
// ABOUTME: Covers manual, merged, fallback, polling and file-watch sources.

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{ err error }

func (s failingSource) Subscribe(func()) (func(), error) {
	return nil, s.err
}

func TestManualSignalSource(t *testing.T) {
	src := &ManualSignalSource{}
	var a, b atomic.Int32

	cancelA, err := src.Subscribe(func() { a.Add(1) })
	require.NoError(t, err)
	_, err = src.Subscribe(func() { b.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, 2, src.Subscribers())

	src.Fire()
	cancelA()
	cancelA()
	src.Fire()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(2), b.Load())
	assert.Equal(t, 1, src.Subscribers())
}

func TestMergeSignalSources(t *testing.T) {
	first, second := &ManualSignalSource{}, &ManualSignalSource{}
	var count atomic.Int32

	cancel, err := MergeSignalSources(first, nil, second).Subscribe(func() { count.Add(1) })
	require.NoError(t, err)

	first.Fire()
	second.Fire()
	assert.Equal(t, int32(2), count.Load())

	cancel()
	assert.Equal(t, 0, first.Subscribers())
	assert.Equal(t, 0, second.Subscribers())
}

func TestMergeSignalSourcesUndoesOnFailure(t *testing.T) {
	ok := &ManualSignalSource{}
	boom := errors.New("boom")

	_, err := MergeSignalSources(ok, failingSource{boom}).Subscribe(func() {})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ok.Subscribers())
}

func TestFallbackSignalSource(t *testing.T) {
	fallback := &ManualSignalSource{}
	src := &FallbackSignalSource{Primary: failingSource{errors.New("no bus")}, Fallback: fallback}

	var fired atomic.Bool
	cancel, err := src.Subscribe(func() { fired.Store(true) })
	require.NoError(t, err)
	defer cancel()

	fallback.Fire()
	assert.True(t, fired.Load())
}

func TestFallbackSignalSourcePrefersPrimary(t *testing.T) {
	primary, fallback := &ManualSignalSource{}, &ManualSignalSource{}
	src := &FallbackSignalSource{Primary: primary, Fallback: fallback}

	cancel, err := src.Subscribe(func() {})
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, 1, primary.Subscribers())
	assert.Equal(t, 0, fallback.Subscribers())
}

func TestPollingSignalSourceFiresOnChange(t *testing.T) {
	var dark atomic.Bool
	querier := ModeQuerierFunc(func(context.Context) (Mode, error) {
		return ModeFromDark(dark.Load()), nil
	})

	var count atomic.Int32
	src := &PollingSignalSource{Querier: querier, Interval: 10 * time.Millisecond}
	cancel, err := src.Subscribe(func() { count.Add(1) })
	require.NoError(t, err)
	defer cancel()

	// No change, no signal.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())

	dark.Store(true)
	require.Eventually(t, func() bool { return count.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	dark.Store(false)
	require.Eventually(t, func() bool { return count.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestPollingSignalSourceStopsOnCancel(t *testing.T) {
	var queries atomic.Int32
	querier := ModeQuerierFunc(func(context.Context) (Mode, error) {
		queries.Add(1)
		return ModeLight, nil
	})

	src := &PollingSignalSource{Querier: querier, Interval: 5 * time.Millisecond}
	cancel, err := src.Subscribe(func() {})
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	cancel()
	cancel()
	after := queries.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, queries.Load())
}

func TestPollingSignalSourceRequiresQuerier(t *testing.T) {
	_, err := (&PollingSignalSource{}).Subscribe(func() {})
	assert.Error(t, err)
}

func TestFileSignalSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".GlobalPreferences.plist")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	var count atomic.Int32
	cancel, err := (&FileSignalSource{Path: path}).Subscribe(func() { count.Add(1) })
	require.NoError(t, err)
	defer cancel()

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.plist"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())

	// Replaced atomically, the way preference writers do it.
	tmp := filepath.Join(dir, "tmp.plist")
	require.NoError(t, os.WriteFile(tmp, []byte("b"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return count.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestFileSignalSourceIgnoresWritesWithoutModeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".GlobalPreferences.plist")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	var dark atomic.Bool
	querier := ModeQuerierFunc(func(context.Context) (Mode, error) {
		return ModeFromDark(dark.Load()), nil
	})

	var count atomic.Int32
	cancel, err := (&FileSignalSource{Path: path, Querier: querier}).Subscribe(func() { count.Add(1) })
	require.NoError(t, err)
	defer cancel()

	// Unrelated preferences being saved.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('b' + i)}, 0644))
	}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())

	dark.Store(true)
	require.NoError(t, os.WriteFile(path, []byte("dark"), 0644))
	require.Eventually(t, func() bool { return count.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}

func TestFileSignalSourceMissingDirectory(t *testing.T) {
	_, err := (&FileSignalSource{Path: filepath.Join(t.TempDir(), "missing", "file")}).Subscribe(func() {})
	assert.Error(t, err)
}
