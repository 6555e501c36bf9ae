// Package gcsfs adapts Google Cloud Storage to a generic hierarchical
// filesystem abstraction: object blobs addressed by gs://bucket/object look
// and behave like random-access files and directories. Reads serve
// arbitrary byte ranges through a block-aligned LRU content cache, writes
// stream through a resumable-upload state machine with transient-failure
// recovery, and directory-like operations (list, stat, exists, rename,
// delete-tree) are synthesized from prefix queries over GCS's flat key
// space.
//
// FileSystem is safe for concurrent use by multiple goroutines, including
// concurrent reads through the same open file handle.
//
// Caveat on cache interaction (see Options.MaxStaleness and
// Options.StatCacheMaxAge): when MaxStaleness is 0 and the stat cache's
// max age is nonzero, a cached stat entry is the sole authority for a
// file's signature until it expires or is explicitly invalidated -- a
// write from another process will not be observed mid-lifetime of that
// cached entry. This mirrors the upstream filesystem this package is
// modeled on and is not a bug: call FlushCaches, or configure a shorter
// stat TTL, if fresher cross-process visibility is required.
//
// gcsfs does not provide strong consistency across multiple writers to
// the same object, POSIX permissions or locking, partial overwrites (every
// write produces a new object generation), or content transforms.
package gcsfs
