package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lumina/internal/fingerprint"
)

func TestWatcher_IngestsDroppedFile(t *testing.T) {
	if testing.Short() {
		t.Skip("debounce makes this test slow")
	}

	watchDir := t.TempDir()
	store := newTestStore(t)
	p := NewPipeline(store, fingerprint.New(0), &fakeIndex{}, t.TempDir(), 1)
	w := NewWatcher(p, []string{watchDir}, StrategyReference)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(200 * time.Millisecond)
	dropped := filepath.Join(watchDir, "dropped.png")
	writeTestImage(t, dropped, 0)

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.FindByPath(context.Background(), dropped); err == nil {
			cancel()
			<-done
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("dropped file never ingested")
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	watchDir := t.TempDir()
	store := newTestStore(t)
	p := NewPipeline(store, fingerprint.New(0), &fakeIndex{}, t.TempDir(), 1)
	w := NewWatcher(p, []string{watchDir}, StrategyReference)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}
