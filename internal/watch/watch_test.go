package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRunDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("configVersion: 1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events atomic.Int32
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			Paths:    []string{path},
			Debounce: 100 * time.Millisecond,
			OnEvent:  func(fsnotify.Event) { events.Add(1) },
			OnChange: func(context.Context) { changed <- struct{}{} },
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("configVersion: 1\n# edit\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(other, []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected a change notification")
	}
	select {
	case <-changed:
		t.Fatalf("expected a single notification for one burst")
	case <-time.After(300 * time.Millisecond):
	}
	if events.Load() == 0 {
		t.Fatalf("expected OnEvent to see the writes")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestRunRequiresPaths(t *testing.T) {
	if err := Run(context.Background(), Options{OnChange: func(context.Context) {}}); err == nil {
		t.Fatalf("expected error without paths")
	}
}
