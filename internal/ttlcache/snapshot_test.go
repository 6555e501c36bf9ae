package ttlcache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	c := New[string](time.Hour, 100)
	c.Insert("gs://bucket/a", "alpha")
	c.Insert("gs://bucket/b", "beta")

	snap := StartSnapshotting(c, path, "stat_cache", time.Hour)
	if err := snap.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	restored := New[string](time.Hour, 100)
	if err := LoadSnapshot(restored, path, "stat_cache"); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	v, ok := restored.Lookup("gs://bucket/a")
	if !ok || v != "alpha" {
		t.Errorf("Lookup(a) = %q, %v; want alpha, true", v, ok)
	}
	v, ok = restored.Lookup("gs://bucket/b")
	if !ok || v != "beta" {
		t.Errorf("Lookup(b) = %q, %v; want beta, true", v, ok)
	}
}

func TestLoadSnapshotMissingFileIsNotError(t *testing.T) {
	c := New[string](time.Hour, 100)
	err := LoadSnapshot(c, filepath.Join(t.TempDir(), "missing.db"), "stat_cache")
	if err != nil {
		t.Fatalf("expected nil error for missing snapshot, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}
