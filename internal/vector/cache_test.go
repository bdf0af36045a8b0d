package vector

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/hyperjump/tebiki/internal/models"
)

func saveManual(t *testing.T, s *Store, manual string, n int) {
	t.Helper()
	idx, _ := NewFlatIndex(2)
	for i := 0; i < n; i++ {
		idx.Add([][]float32{{float32(i), 0}}, []models.ChunkRecord{{Manual: manual, Path: manual + "/p.jpg", ChunkIndex: i, Text: "x"}})
	}
	if _, err := s.Save(manual, idx); err != nil {
		t.Fatal(err)
	}
}

func TestCache_LoadsOnceAndShares(t *testing.T) {
	s := NewStore(t.TempDir())
	saveManual(t, s, "pump", 2)
	c := NewCache(s)

	var wg sync.WaitGroup
	got := make([]*FlatIndex, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := c.Index("pump")
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = idx
		}()
	}
	wg.Wait()
	for i := 1; i < len(got); i++ {
		if got[i] != got[0] {
			t.Fatal("concurrent loads returned different indexes")
		}
	}
	if want := []string{"pump"}; !reflect.DeepEqual(c.Loaded(), want) {
		t.Errorf("Loaded() = %v", c.Loaded())
	}
}

func TestCache_EvictPathPicksUpRebuild(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	saveManual(t, s, "pump", 1)
	c := NewCache(s)

	first, err := c.Index("pump")
	if err != nil {
		t.Fatal(err)
	}
	saveManual(t, s, "pump", 3)
	if again, _ := c.Index("pump"); again != first || again.Size() != 1 {
		t.Error("cache should keep serving the loaded index until evicted")
	}
	if m := c.EvictPath(filepath.Join(root, "pump", IndexFileName)); m != "pump" {
		t.Errorf("EvictPath = %q", m)
	}
	rebuilt, err := c.Index("pump")
	if err != nil || rebuilt.Size() != 3 {
		t.Errorf("after evict: size=%v err=%v", rebuilt, err)
	}
	if first.Size() != 1 {
		t.Error("evicted index must stay usable by its holders")
	}
	if m := c.EvictPath(filepath.Join(root, "pump", "other.bin")); m != "" {
		t.Errorf("EvictPath(non-index) = %q", m)
	}
}

func TestCache_FailedLoadNotCached(t *testing.T) {
	s := NewStore(t.TempDir())
	c := NewCache(s)
	if _, err := c.Index("pump"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
	saveManual(t, s, "pump", 1)
	if _, err := c.Index("pump"); err != nil {
		t.Errorf("after build: %v", err)
	}
	if c.Evict("missing") {
		t.Error("Evict(missing) = true")
	}
}

func TestCache_PanickingLoadNotCached(t *testing.T) {
	s := NewStore(t.TempDir())
	saveManual(t, s, "pump", 2)
	c := NewCache(s)
	c.load = func(string) (*FlatIndex, error) { panic("decoder bug") }

	idx, err := c.Index("pump")
	if err == nil || idx != nil {
		t.Fatalf("Index = %v, %v; want nil index and an error", idx, err)
	}
	if got := c.Loaded(); len(got) != 0 {
		t.Errorf("Loaded = %v, want none", got)
	}

	c.load = s.Load
	idx, err = c.Index("pump")
	if err != nil || idx.Size() != 2 {
		t.Errorf("retry: idx=%v err=%v", idx, err)
	}
}
