package confloader

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func startWatcher(t *testing.T, path string, opts ...WatcherOption) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher(opts...)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})

	w.StartAsync()
	// Wait for watcher to be ready
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
	if w.logger == nil {
		t.Error("NewWatcher() logger is nil")
	}
}

func TestNewWatcher_WithOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	w, err := NewWatcher(WithWatcherLogger(logger), WithDebounce(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.logger != logger {
		t.Error("WithWatcherLogger() option not applied")
	}
	if w.debounce != 0 {
		t.Errorf("debounce = %v, want 0", w.debounce)
	}
}

func TestWatcher_Watch_NonexistentDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Watch() expected error for nonexistent directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_FileChange(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "log:\n  level: info\n")

	_, changed := startWatcher(t, configFile, WithDebounce(20*time.Millisecond))

	writeFile(t, configFile, "log:\n  level: debug\n")

	select {
	case path := <-changed:
		if path != filepath.Clean(configFile) {
			t.Errorf("callback path = %q, want %q", path, configFile)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange() callback was not triggered within timeout")
	}
}

func TestWatcher_AtomicRename(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	writeFile(t, configFile, "a: 1\n")

	_, changed := startWatcher(t, configFile, WithDebounce(20*time.Millisecond))

	tmp := filepath.Join(dir, ".config.yaml.swp")
	writeFile(t, tmp, "a: 2\n")
	if err := os.Rename(tmp, configFile); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("rename over the watched file was not reported")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	writeFile(t, configFile, "a: 1\n")

	_, changed := startWatcher(t, configFile, WithDebounce(0))

	writeFile(t, filepath.Join(dir, "other.yaml"), "b: 2\n")

	select {
	case path := <-changed:
		t.Errorf("unexpected callback for %q", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Debounce(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "n: 0\n")

	w, err := NewWatcher(WithDebounce(150 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var calls atomic.Int32
	w.OnChange(func(string) { calls.Add(1) })

	for range 5 {
		w.schedule(configFile)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(400 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callbacks = %d, want 1 after a burst", got)
	}
}

func TestWatcher_ConcurrentCallbacks(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var count atomic.Int32
	w.OnChange(func(path string) {
		count.Add(1)
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.notifyCallbacks("/test/path")
		}()
	}
	wg.Wait()

	if got := count.Load(); got != 100 {
		t.Errorf("Concurrent notifications: count = %d, want 100", got)
	}
}
