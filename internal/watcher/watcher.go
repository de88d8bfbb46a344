// Package watcher watches a directory of manifest files and reports changed
// manifests after a debounce interval, so rapid editor save sequences
// collapse into one re-apply.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"nagctl/pkg/logging"
)

const subsystem = "Watcher"

// DefaultDebounce is how long the watcher waits for further writes to the
// same file before reporting it.
const DefaultDebounce = 500 * time.Millisecond

// Watcher emits the paths of manifest files that changed in a watched
// directory.
type Watcher struct {
	mu sync.Mutex

	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	pending  map[string]*time.Timer
	running  bool
}

// New creates a Watcher over dir. A zero debounce selects the default.
func New(dir string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}
}

// Start begins watching and sends debounced change events until the context
// is cancelled. It returns once the watch loop has stopped.
func (w *Watcher) Start(ctx context.Context, changes chan<- string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.running = true
	w.mu.Unlock()

	logging.Info(subsystem, "Watching %s for manifest changes", w.dir)
	defer func() {
		w.mu.Lock()
		w.running = false
		for _, t := range w.pending {
			t.Stop()
		}
		w.pending = make(map[string]*time.Timer)
		w.mu.Unlock()
		fw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isManifest(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx, event.Name, changes)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Warn(subsystem, "Watch error: %v", err)
		}
	}
}

// schedule (re)arms the debounce timer for a changed file.
func (w *Watcher) schedule(ctx context.Context, path string, changes chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case changes <- path:
		case <-ctx.Done():
		}
	})
}

func isManifest(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
