package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcherDispatchesNewFile(t *testing.T) {
	dir := t.TempDir()

	arrived := make(chan string, 4)
	w := NewWatcher(dir, "_sections.json", func(path string) {
		arrived <- path
	}, WithDebounce(50*time.Millisecond), WithLogger(zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	target := filepath.Join(dir, "report_sections.json")
	if err := os.WriteFile(target, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-arrived:
		if got != target {
			t.Errorf("dispatched path = %q, want %q", got, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestWatcherIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()

	arrived := make(chan string, 4)
	w := NewWatcher(dir, "_sections.json", func(path string) {
		arrived <- path
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-arrived:
		t.Errorf("unexpected dispatch for %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0
	done := make(chan struct{}, 1)
	w := NewWatcher(dir, "_sections.json", func(string) {
		mu.Lock()
		count++
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	}, WithDebounce(200*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	target := filepath.Join(dir, "guide_sections.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte(`[]`), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	// Give any stray timers a chance to fire before counting.
	time.Sleep(400 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("dispatch count = %d, want 1", count)
	}
}

func TestSyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "old_sections.json")
	if err := os.WriteFile(target, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	arrived := make(chan string, 4)
	w := NewWatcher(dir, "_sections.json", func(path string) {
		arrived <- path
	})
	w.SyncExistingFiles()

	select {
	case got := <-arrived:
		if got != target {
			t.Errorf("dispatched path = %q, want %q", got, target)
		}
	default:
		t.Fatal("expected existing file to be dispatched")
	}
	select {
	case got := <-arrived:
		t.Errorf("unexpected extra dispatch %q", got)
	default:
	}
}
