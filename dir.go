package gcsfs

import (
	"context"

	"github.com/Spider8801/gcsfs/internal/gcspath"
)

// CreateDir creates the directory marker object path/ (empty body) via
// the resumable upload state machine. If a marker already exists,
// returns already-exists (spec section 4.7).
func (fs *FileSystem) CreateDir(ctx context.Context, uri string) error {
	p, err := parsePath(uri)
	if err != nil {
		return err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return err
	}

	exists, err := fs.meta.FolderExists(ctx, p.Bucket, p.TrimmedObject())
	if err != nil {
		return wrapError(classifyKind(err), uri, err, "checking directory existence")
	}
	if exists {
		return newError(KindAlreadyExists, uri, "directory already exists")
	}

	marker := dirPrefix(p.TrimmedObject())
	if err := fs.uploader.Upload(ctx, p.Bucket, marker, nil); err != nil {
		return wrapError(classifyKind(err), uri, err, "creating directory marker")
	}
	fs.invalidate(uri)
	return nil
}

// DeleteDir succeeds iff the listing under path/ contains at most the
// self-marker; otherwise failed-precondition ("non-empty"). Deletes the
// marker if present (spec section 4.7).
func (fs *FileSystem) DeleteDir(ctx context.Context, uri string) error {
	p, err := parsePath(uri)
	if err != nil {
		return err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return err
	}

	prefix := dirPrefix(p.TrimmedObject())
	listing, err := fs.meta.ListRecursive(ctx, p.Bucket, p.TrimmedObject())
	if err != nil {
		return wrapError(classifyKind(err), uri, err, "listing directory")
	}
	if len(listing.Files) > 0 || len(listing.Dirs) > 0 {
		return newError(KindFailedPrecondition, uri, "directory is not empty")
	}

	if err := fs.meta.Delete(ctx, p.Bucket, prefix); err != nil {
		return wrapError(classifyKind(err), uri, err, "deleting directory marker")
	}
	fs.invalidate(uri)
	return nil
}

// DeleteCounts reports how many items DeleteRecursively could not
// remove.
type DeleteCounts struct {
	UndeletedFiles int
	UndeletedDirs  int
}

// DeleteRecursively requires IsDirectory(path) (else not-found), lists
// recursively, and attempts to delete every item; a per-item deletion
// failure that turns out to be 404 counts as success (spec section
// 4.7, invariant 5).
func (fs *FileSystem) DeleteRecursively(ctx context.Context, uri string) (DeleteCounts, error) {
	p, err := parsePath(uri)
	if err != nil {
		return DeleteCounts{}, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return DeleteCounts{}, err
	}

	if _, err := fs.IsDirectory(ctx, uri); err != nil {
		kind := KindOf(err)
		if kind == KindNotFound || kind == KindFailedPrecondition {
			// The target itself counts as one undeleted directory,
			// matching TensorFlow's DeleteRecursively_NotAFolder scenario.
			return DeleteCounts{UndeletedDirs: 1}, wrapError(KindNotFound, uri, err, "not a directory")
		}
		return DeleteCounts{}, err
	}

	prefix := dirPrefix(p.TrimmedObject())
	listing, err := fs.meta.ListRecursive(ctx, p.Bucket, p.TrimmedObject())
	if err != nil {
		return DeleteCounts{}, wrapError(classifyKind(err), uri, err, "listing directory")
	}

	var counts DeleteCounts
	for _, f := range listing.Files {
		object := prefix + f
		if err := fs.meta.Delete(ctx, p.Bucket, object); err != nil {
			counts.UndeletedFiles++
			continue
		}
		fs.invalidate(gcspath.Join(p.Bucket, object))
	}
	for _, d := range listing.Dirs {
		object := prefix + d
		if err := fs.meta.Delete(ctx, p.Bucket, object); err != nil {
			counts.UndeletedDirs++
			continue
		}
		fs.invalidate(gcspath.Join(p.Bucket, object))
	}
	if err := fs.meta.Delete(ctx, p.Bucket, prefix); err != nil {
		counts.UndeletedDirs++
	}

	fs.invalidate(uri)
	return counts, nil
}
