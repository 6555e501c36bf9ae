package gcsfs

import (
	"context"

	"github.com/Spider8801/gcsfs/internal/gcspath"
)

// Stat resolves path's statistics, consulting the stat cache first. On
// a miss it issues a metadata fetch and populates the cache. Resolution
// order for an object path follows spec section 4.7: stat cache, then
// object existence; for a bucket-root path, bucket existence.
func (fs *FileSystem) Stat(ctx context.Context, uri string) (FileStatistics, error) {
	p, err := parsePath(uri)
	if err != nil {
		return FileStatistics{}, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return FileStatistics{}, err
	}

	if p.IsBucketRoot() {
		exists, err := fs.meta.BucketExists(ctx, p.Bucket)
		if err != nil {
			return FileStatistics{}, wrapError(classifyKind(err), uri, err, "checking bucket existence")
		}
		if !exists {
			return FileStatistics{}, newError(KindNotFound, uri, "bucket does not exist")
		}
		return FileStatistics{IsDirectory: true}, nil
	}

	entry, hit := fs.statCache.Lookup(uri)
	fs.tapStat(uri, hit)
	if hit {
		return entry.stats, nil
	}

	stats, sig, err := fs.statObject(ctx, uri, p.Bucket, p.TrimmedObject())
	if err != nil {
		return FileStatistics{}, err
	}
	fs.statCache.Insert(uri, statEntry{stats: stats, sig: sig})
	return stats, nil
}

func (fs *FileSystem) tapStat(uri string, hit bool) {
	if fs.opts.StatsTap != nil {
		fs.opts.StatsTap.GotStatRequest(uri, hit)
	}
}

// statObject performs the actual GCS stat call and folds it into a
// FileStatistics/Signature pair, without touching the cache.
func (fs *FileSystem) statObject(ctx context.Context, uri, bucket, object string) (FileStatistics, Signature, error) {
	s, err := fs.meta.Stat(ctx, bucket, object)
	if err != nil {
		return FileStatistics{}, Signature{}, wrapError(classifyKind(err), uri, err, "stat")
	}
	stats := FileStatistics{
		Size:       s.Size,
		ModTime:    s.Updated,
		Generation: s.Generation,
	}
	return stats, stats.Signature(), nil
}

// FileExists reports whether path exists as either an object or a
// directory (folder prefix or bucket), per spec section 4.7's
// resolution order: object existence, then folder existence, then (for
// bucket-only paths) bucket existence.
func (fs *FileSystem) FileExists(ctx context.Context, uri string) (bool, error) {
	p, err := parsePath(uri)
	if err != nil {
		return false, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return false, err
	}

	if p.IsBucketRoot() {
		return fs.meta.BucketExists(ctx, p.Bucket)
	}

	if _, hit := fs.statCache.Lookup(uri); hit {
		return true, nil
	}

	object := p.TrimmedObject()
	if _, err := fs.meta.Stat(ctx, p.Bucket, object); err == nil {
		return true, nil
	} else if classifyKind(err) != KindNotFound {
		return false, wrapError(classifyKind(err), uri, err, "checking object existence")
	}

	return fs.meta.FolderExists(ctx, p.Bucket, object)
}

// IsDirectory reports whether path denotes a directory: true for a
// bucket root iff the bucket exists, true for any other path iff a
// folder prefix exists there. Resolution order follows the same
// bucket-root-vs-object split as Stat/FileExists (spec section 4.7): a
// folder-prefix check first, then (consulting the stat cache first) an
// object-existence check to distinguish a plain object at that exact key
// (failed-precondition, per spec section 7's error table) from a path
// that resolves to nothing at all (not-found).
func (fs *FileSystem) IsDirectory(ctx context.Context, uri string) (bool, error) {
	p, err := parsePath(uri)
	if err != nil {
		return false, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return false, err
	}

	if p.IsBucketRoot() {
		exists, err := fs.meta.BucketExists(ctx, p.Bucket)
		if err != nil {
			return false, wrapError(classifyKind(err), uri, err, "checking bucket existence")
		}
		if !exists {
			return false, newError(KindNotFound, uri, "bucket does not exist")
		}
		return true, nil
	}

	isDir, err := fs.isDirLoose(ctx, p)
	if err != nil {
		return false, err
	}
	if isDir {
		return true, nil
	}

	object := p.TrimmedObject()
	if _, hit := fs.statCache.Lookup(uri); hit {
		return false, newError(KindFailedPrecondition, uri, "path is an object, not a directory")
	}
	if _, err := fs.meta.Stat(ctx, p.Bucket, object); err == nil {
		return false, newError(KindFailedPrecondition, uri, "path is an object, not a directory")
	} else if classifyKind(err) != KindNotFound {
		return false, wrapError(classifyKind(err), uri, err, "checking object existence")
	}

	return false, newError(KindNotFound, uri, "neither object nor directory exists")
}

// isDirLoose reports whether a folder prefix (or, for a bucket root, the
// bucket itself) exists, without the plain-object-vs-nothing
// disambiguation IsDirectory does. Rename uses this instead of
// IsDirectory: renaming a plain-object source (TensorFlow's
// RenameFile_Object) must not fail just because it isn't a directory.
func (fs *FileSystem) isDirLoose(ctx context.Context, p gcspath.Path) (bool, error) {
	if p.IsBucketRoot() {
		return fs.meta.BucketExists(ctx, p.Bucket)
	}
	return fs.meta.FolderExists(ctx, p.Bucket, p.TrimmedObject())
}
