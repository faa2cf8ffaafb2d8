package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of write events a file copy produces
// into a single ingest once the file has settled.
const debounceWindow = 2 * time.Second

// Watcher auto-ingests media dropped into watched folders.
type Watcher struct {
	pipeline *Pipeline
	paths    []string
	strategy Strategy
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a Watcher over the given directories. Files appearing
// under them are ingested with the given strategy.
func NewWatcher(pipeline *Pipeline, paths []string, strategy Strategy) *Watcher {
	return &Watcher{
		pipeline: pipeline,
		paths:    paths,
		strategy: strategy,
		logger:   slog.Default(),
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done. Subdirectories created while watching are
// picked up; events for unsupported file types are ignored.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, p := range w.paths {
		if err := addRecursive(watcher, p); err != nil {
			w.logger.WarnContext(ctx, "failed to watch path", "path", p, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := addRecursive(watcher, event.Name); err != nil {
				w.logger.WarnContext(ctx, "failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}

	if _, ok := KindForPath(event.Name); !ok {
		return
	}
	w.scheduleIngest(ctx, event.Name)
}

// scheduleIngest (re)arms the debounce timer for a path.
func (w *Watcher) scheduleIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(debounceWindow)
		return
	}
	w.pending[path] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.logger.InfoContext(ctx, "auto-ingesting watched file", "path", path)
		if _, err := w.pipeline.Scan(ctx, []string{path}, w.strategy, nil); err != nil {
			w.logger.ErrorContext(ctx, "auto-ingest failed", "path", path, "error", err)
		}
	})
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
