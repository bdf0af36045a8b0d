package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func containsSuffix(paths []string, suffix string) bool {
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, root string, changed, removed *recorder) *Watcher {
	t.Helper()
	w := NewWatcher(root, "index.vdb", changed.record, removed.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_ReportsRewrittenIndex(t *testing.T) {
	root := t.TempDir()
	manualDir := filepath.Join(root, "pump")
	if err := os.MkdirAll(manualDir, 0755); err != nil {
		t.Fatal(err)
	}
	var changed, removed recorder
	startWatcher(t, root, &changed, &removed)

	// Same sequence as an atomic save: temp file, then rename over the index.
	tmp := filepath.Join(manualDir, ".index.vdb.tmp")
	if err := os.WriteFile(tmp, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(manualDir, "index.vdb")); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return containsSuffix(changed.snapshot(), filepath.Join("pump", "index.vdb")) }) {
		t.Fatalf("expected change for pump index, got %v", changed.snapshot())
	}
	for _, p := range changed.snapshot() {
		if filepath.Base(p) != "index.vdb" {
			t.Errorf("unexpected change reported for %s", p)
		}
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	var changed, removed recorder
	startWatcher(t, root, &changed, &removed)

	path := filepath.Join(root, "index.vdb")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return len(changed.snapshot()) >= 1 }) {
		t.Fatal("expected a debounced change")
	}
	time.Sleep(200 * time.Millisecond)
	if n := len(changed.snapshot()); n > 2 {
		t.Errorf("burst of writes reported %d times", n)
	}
}

func TestWatcher_NewManualDirectory(t *testing.T) {
	root := t.TempDir()
	var changed, removed recorder
	startWatcher(t, root, &changed, &removed)

	nested := filepath.Join(root, "drill")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "index.vdb"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return containsSuffix(changed.snapshot(), filepath.Join("drill", "index.vdb")) }) {
		t.Errorf("expected change for new manual, got %v", changed.snapshot())
	}
}

func TestWatcher_ReportsRemoval(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "index.vdb")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	var changed, removed recorder
	startWatcher(t, root, &changed, &removed)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return len(removed.snapshot()) == 1 }) {
		t.Errorf("expected one removal, got %v", removed.snapshot())
	}
}

func TestWatcher_StartCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	var changed, removed recorder
	w := startWatcher(t, root, &changed, &removed)
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if w.Root() != root {
		t.Errorf("Root() = %s", w.Root())
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b/index.vdb", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
