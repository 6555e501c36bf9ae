package gcsfs

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/Spider8801/gcsfs/internal/gcspath"
)

// GetChildren lists the immediate children of the directory denoted by
// uri: list-with-delimiter, prefix stripped, self-directory marker
// omitted (spec section 4.7, invariant 3). The listing response carries
// only names, so no stat-cache entries are inserted for the children.
func (fs *FileSystem) GetChildren(ctx context.Context, uri string) ([]string, error) {
	p, err := parsePath(uri)
	if err != nil {
		return nil, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return nil, err
	}

	prefix := dirPrefix(p.TrimmedObject())
	listing, err := fs.meta.ListChildren(ctx, p.Bucket, prefix)
	if err != nil {
		return nil, wrapError(classifyKind(err), uri, err, "listing children")
	}

	out := make([]string, 0, len(listing.Files)+len(listing.Dirs))
	for _, f := range listing.Files {
		out = append(out, gcspath.Join(p.Bucket, prefix+f))
	}
	for _, d := range listing.Dirs {
		out = append(out, gcspath.Join(p.Bucket, prefix+d))
	}
	sort.Strings(out)
	return out, nil
}

// GetMatchingPaths expands a glob pattern: it finds the longest
// wildcard-free prefix, lists everything under it without a delimiter,
// and filters with path.Match semantics against each full object name
// (spec section 4.7). Results are cached by pattern in the matching-paths
// cache until TTL or FlushCaches.
func (fs *FileSystem) GetMatchingPaths(ctx context.Context, pattern string) ([]string, error) {
	if cached, hit := fs.matchingPathsCache.Lookup(pattern); hit {
		return cached, nil
	}

	p, err := parsePath(pattern)
	if err != nil {
		return nil, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return nil, err
	}

	object := p.TrimmedObject()
	prefix := wildcardFreePrefix(object)
	if prefix == "" && strings.ContainsAny(object, "*?[") {
		return nil, newError(KindInvalidArgument, pattern, "glob has no concrete prefix")
	}

	listing, err := fs.meta.ListByPrefix(ctx, p.Bucket, prefix)
	if err != nil {
		return nil, wrapError(classifyKind(err), pattern, err, "listing for glob expansion")
	}

	var matches []string
	for _, f := range listing.Files {
		full := prefix + f
		ok, err := path.Match(object, full)
		if err != nil {
			return nil, wrapError(KindInvalidArgument, pattern, err, "invalid glob pattern")
		}
		if ok {
			matches = append(matches, gcspath.Join(p.Bucket, full))
		}
	}
	sort.Strings(matches)

	fs.matchingPathsCache.Insert(pattern, matches)
	return matches, nil
}

// wildcardFreePrefix returns the longest leading substring of object
// that contains none of path.Match's special characters.
func wildcardFreePrefix(object string) string {
	idx := strings.IndexAny(object, "*?[")
	if idx < 0 {
		return object
	}
	return object[:idx]
}

// dirPrefix normalizes object into a directory prefix, appending a
// trailing slash if one isn't already present (mirrors gcsmeta's own
// normalization so the reconstructed full path matches what it strips).
func dirPrefix(object string) string {
	if object == "" || strings.HasSuffix(object, "/") {
		return object
	}
	return object + "/"
}
