package gcsfs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

func TestLocationSnapshotRoundTrip(t *testing.T) {
	fs, factory := newTestFS(t, gcsrequest.ScriptedCall{
		Method:       "GET",
		ResponseCode: 200,
		ResponseBody: `{"location":"US-CENTRAL1"}`,
	})
	defer factory.Done()
	fs.opts.AllowedLocations = map[string]struct{}{"us-central1": {}}

	if err := fs.checkLocation(context.Background(), "bucket"); err != nil {
		t.Fatalf("checkLocation: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.db")
	snap := fs.StartLocationSnapshotting(path, time.Hour)
	if err := snap.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	restored, _ := newTestFS(t)
	if err := restored.LoadLocationSnapshot(path); err != nil {
		t.Fatalf("LoadLocationSnapshot: %v", err)
	}
	location, hit := restored.bucketLocationCache.Lookup("bucket")
	if !hit || location != "us-central1" {
		t.Fatalf("bucketLocationCache.Lookup(%q) = (%q, %t), want (%q, true)", "bucket", location, hit, "us-central1")
	}
}

func TestLoadLocationSnapshotMissingFileIsNotError(t *testing.T) {
	fs, _ := newTestFS(t)
	err := fs.LoadLocationSnapshot(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("LoadLocationSnapshot with missing file: %v", err)
	}
}
