package gcsfs

import (
	"time"

	"github.com/Spider8801/gcsfs/internal/ttlcache"
)

// bucketLocationSnapshotTable names the SQLite table LoadLocationSnapshot
// and StartLocationSnapshotting read and write.
const bucketLocationSnapshotTable = "bucket_location_cache"

// LoadLocationSnapshot populates the bucket-location cache from a
// snapshot file written by a previous process's StartLocationSnapshotting,
// so a freshly started FileSystem doesn't re-issue a location lookup for
// every bucket it already knew about before restart. A missing file is
// not an error: the cache simply starts cold. A file that cannot be
// opened or read is returned as an error.
func (fs *FileSystem) LoadLocationSnapshot(path string) error {
	return ttlcache.LoadSnapshot(fs.bucketLocationCache, path, bucketLocationSnapshotTable)
}

// StartLocationSnapshotting periodically persists the bucket-location
// cache to path every interval, until the returned snapshot's Stop is
// called. Snapshotting is opt-in (internal/config.SnapshotConfig):
// this repo's own caches are otherwise purely in-memory.
func (fs *FileSystem) StartLocationSnapshotting(path string, interval time.Duration) *ttlcache.Snapshot {
	return ttlcache.StartSnapshotting(fs.bucketLocationCache, path, bucketLocationSnapshotTable, interval)
}
