package library

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"media-router/internal/playlist"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}
}

func itemPaths(items []playlist.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = filepath.ToSlash(it.Path)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestRescan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.mod", "a/c.xm", "cover.jpg")

	lib := New(playlist.Options{Root: root}, 0, false)
	if lib.Len() != 0 {
		t.Errorf("Expected empty playlist before the first scan, got %d", lib.Len())
	}

	stats := lib.Rescan(TriggerManual)
	if stats.Items != 2 || stats.Excluded != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	got := itemPaths(lib.Items())
	if len(got) != 2 || got[0] != "a/c.xm" || got[1] != "b.mod" {
		t.Errorf("Unexpected items %v", got)
	}

	item, ok := lib.Get(1)
	if !ok || item.Path != "b.mod" {
		t.Errorf("Expected b.mod at index 1, got %+v (ok=%v)", item, ok)
	}
	if _, ok := lib.Get(2); ok {
		t.Error("Expected out of range index to fail")
	}
	if lib.LastStats().Items != 2 {
		t.Errorf("Expected last stats to be recorded, got %+v", lib.LastStats())
	}
}

func TestRescanEmptyRoot(t *testing.T) {
	lib := New(playlist.Options{}, 0, false)
	stats := lib.Rescan(TriggerManual)
	if stats.Items != 0 || lib.Len() != 0 {
		t.Errorf("Expected empty playlist, got %d", lib.Len())
	}
}

func TestSetOptions(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFiles(t, first, "one.mod")
	writeFiles(t, second, "two.mod", ".hidden/three.mod")

	lib := New(playlist.Options{Root: first}, 0, false)
	lib.Rescan(TriggerStartup)

	var callbacks atomic.Int32
	lib.SetOnRebuild(func(playlist.Stats) { callbacks.Add(1) })

	lib.SetOptions(playlist.Options{Root: second, SkipHidden: true})

	got := itemPaths(lib.Items())
	if len(got) != 1 || got[0] != "two.mod" {
		t.Errorf("Expected only two.mod, got %v", got)
	}
	if lib.Root() != second || !lib.Options().SkipHidden {
		t.Errorf("Unexpected options %+v", lib.Options())
	}
	if callbacks.Load() != 1 {
		t.Errorf("Expected one rebuild callback, got %d", callbacks.Load())
	}
}

func TestOptionsDropObserver(t *testing.T) {
	lib := New(playlist.Options{Root: "/x", Observer: skipLogger{}}, 0, false)
	if lib.Options().Observer != nil {
		t.Error("Expected the caller's observer to be dropped")
	}
}

func TestHealthStatus(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mod")

	lib := New(playlist.Options{Root: root}, 0, false)
	if lib.GetHealthStatus().Ready {
		t.Error("Expected not ready before the first build")
	}

	lib.Rescan(TriggerManual)
	status := lib.GetHealthStatus()
	if !status.Ready || status.Builds != 1 || status.Root != root {
		t.Errorf("Unexpected status %+v", status)
	}
	if status.LastStats.Items != 1 || status.LastBuild.IsZero() {
		t.Errorf("Expected build details, got %+v", status)
	}
	if status.Watching || status.Rebuilding {
		t.Errorf("Expected idle library without watcher, got %+v", status)
	}
}

func TestStartStopWithInterval(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mod")

	lib := New(playlist.Options{Root: root}, 20*time.Millisecond, false)
	if err := lib.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer lib.Stop()

	if lib.Len() != 1 {
		t.Errorf("Expected initial build to be synchronous, got %d items", lib.Len())
	}

	writeFiles(t, root, "b.mod")
	if !waitFor(t, func() bool { return lib.Len() == 2 }) {
		t.Errorf("Expected periodic rescan to pick up b.mod, got %d items", lib.Len())
	}
}

func TestWatcherRebuilds(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mod")

	lib := New(playlist.Options{Root: root}, 0, true)
	lib.SetDebounce(20 * time.Millisecond)
	if err := lib.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer lib.Stop()

	status := lib.GetHealthStatus()
	if !status.Watching {
		t.Skipf("watcher unavailable: %s", status.WatcherError)
	}

	writeFiles(t, root, "b.mod")
	if !waitFor(t, func() bool { return lib.Len() == 2 }) {
		t.Fatalf("Expected watcher to rebuild, got %d items", lib.Len())
	}

	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if !waitFor(t, func() bool { return lib.GetHealthStatus().WatchedDirectories == 2 }) {
		t.Fatalf("Expected new directory to be watched, got %d", lib.GetHealthStatus().WatchedDirectories)
	}
	writeFiles(t, root, "sub/c.mod")
	if !waitFor(t, func() bool { return lib.Len() == 3 }) {
		t.Errorf("Expected watcher to see files in new directory, got %d items", lib.Len())
	}
}

func TestStopIsIdempotent(_ *testing.T) {
	lib := New(playlist.Options{}, 0, true)
	if err := lib.Start(); err != nil {
		return
	}
	lib.Stop()
	lib.Stop()
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/music/a.mod", false},
		{"/music/.git/config", true},
		{"/music/sub/.hidden.mod", true},
		{"/music", false},
		{"/music/sub/dir", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isHidden("/music", tt.path); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
