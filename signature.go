package gcsfs

import (
	"fmt"
	"time"
)

// Signature identifies a specific version of an object: (size,
// generation, updated). It changes on every successful write. The block
// cache keys blocks by (path, signature, block_offset); a signature
// change observed via a fresh stat invalidates all previously cached
// blocks for that path (spec section 3, invariant 2).
type Signature struct {
	Size       int64
	Generation int64
	Updated    time.Time
}

// String renders the signature compactly for use as a cache-key
// component; it is not meant to round-trip.
func (s Signature) String() string {
	return fmt.Sprintf("%d@%d:%d", s.Size, s.Generation, s.Updated.UnixNano())
}

// FileStatistics is the stat-cache value: (size, mtime, is_directory).
type FileStatistics struct {
	Size        int64
	ModTime     time.Time
	IsDirectory bool
	Generation  int64
}

// Signature extracts the Signature component of a FileStatistics value
// for an object (not meaningful for directories).
func (fs FileStatistics) Signature() Signature {
	return Signature{Size: fs.Size, Generation: fs.Generation, Updated: fs.ModTime}
}
