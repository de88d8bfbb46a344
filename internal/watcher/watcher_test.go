package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsManifest(t *testing.T) {
	assert.True(t, isManifest("objects.yaml"))
	assert.True(t, isManifest("objects.YML"))
	assert.False(t, isManifest("objects.cfg"))
	assert.False(t, isManifest("objects.yaml.swp"))
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx, changes)
	}()

	// Give the watch loop time to register before writing.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "objects.yaml")
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("objects: []\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}
	// A non-manifest file never produces an event.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case got := <-changes:
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event within deadline")
	}

	// The rapid write burst collapsed into a single event.
	select {
	case got := <-changes:
		t.Fatalf("unexpected extra event for %s", got)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
