// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFilename)
	w := NewWatcher([]string{path}, 0, func() {})

	assert.True(t, w.relevant(fsnotify.Event{Name: path, Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: path, Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: path, Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}))
	assert.Equal(t, []string{dir}, w.dirs)
}

func TestWatcher_DebouncesStoreWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFilename)

	var changes atomic.Int32
	w := NewWatcher([]string{path}, 100*time.Millisecond, func() { changes.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	store := newTestStore(t, path)
	_, err := store.Add(ProfileInput{Name: "A", URI: "mongodb://a", Database: "a"})
	require.NoError(t, err)
	_, err = store.Add(ProfileInput{Name: "B", URI: "mongodb://b", Database: "b"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	// Unrelated files in the same directory are ignored.
	before := changes.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, before, changes.Load())
}
