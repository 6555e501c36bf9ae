package gcsfs

import (
	"context"
	"strings"
)

// Rename moves src to dst: Copy then Delete for a plain object; for a
// directory source (one with children, including the self-directory
// marker src/), every listed item is copied to the corresponding
// destination key and deleted from src (spec section 4.7, scenario S6).
// Both src and dst are invalidated from every cache.
func (fs *FileSystem) Rename(ctx context.Context, src, dst string) error {
	srcPath, err := parsePath(src)
	if err != nil {
		return err
	}
	dstPath, err := parsePath(dst)
	if err != nil {
		return err
	}
	if err := fs.checkLocation(ctx, srcPath.Bucket); err != nil {
		return err
	}
	if err := fs.checkLocation(ctx, dstPath.Bucket); err != nil {
		return err
	}

	isDir, err := fs.isDirLoose(ctx, srcPath)
	if err != nil {
		return err
	}

	defer fs.invalidate(src)
	defer fs.invalidate(dst)

	if !isDir {
		return fs.renameOne(ctx, src, srcPath.Bucket, srcPath.TrimmedObject(), dstPath.Bucket, dstPath.TrimmedObject())
	}
	return fs.renameDir(ctx, src, srcPath.Bucket, dirPrefix(srcPath.TrimmedObject()), dstPath.Bucket, dirPrefix(dstPath.TrimmedObject()))
}

func (fs *FileSystem) renameOne(ctx context.Context, uri, srcBucket, srcObject, dstBucket, dstObject string) error {
	if err := fs.meta.Copy(ctx, srcBucket, srcObject, dstBucket, dstObject); err != nil {
		return wrapError(classifyKind(err), uri, err, "renaming")
	}
	if err := fs.meta.Delete(ctx, srcBucket, srcObject); err != nil {
		return wrapError(classifyKind(err), uri, err, "deleting source after rename")
	}
	return nil
}

// renameDir enumerates src recursively and copies+deletes every item to
// its corresponding key under dst, then does the same for the
// self-marker, which the listing omits.
func (fs *FileSystem) renameDir(ctx context.Context, uri, srcBucket, srcPrefix, dstBucket, dstPrefix string) error {
	listing, err := fs.meta.ListRecursive(ctx, srcBucket, strings.TrimSuffix(srcPrefix, "/"))
	if err != nil {
		return wrapError(classifyKind(err), uri, err, "listing source directory")
	}

	for _, f := range listing.Files {
		srcObject := srcPrefix + f
		dstObject := dstPrefix + f
		if err := fs.renameOne(ctx, uri, srcBucket, srcObject, dstBucket, dstObject); err != nil {
			return err
		}
	}
	// The self-directory marker (srcPrefix itself) is omitted from
	// Files by gcsmeta's listing, so it needs its own copy+delete pair.
	if err := fs.renameOne(ctx, uri, srcBucket, srcPrefix, dstBucket, dstPrefix); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}
