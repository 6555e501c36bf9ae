// Package gcspath parses gs:// URIs into bucket/object pairs.
//
// An object key is an opaque UTF-8 string that may itself contain slashes;
// this package only ever splits on the first slash after the scheme, never
// interprets the remainder.
package gcspath

import (
	"fmt"
	"strings"
)

const scheme = "gs://"

// Path is a parsed gs:// reference.
type Path struct {
	Bucket string
	Object string
}

// IsBucketRoot reports whether p refers to the bucket itself, with no
// object component (e.g. "gs://bucket" or "gs://bucket/").
func (p Path) IsBucketRoot() bool {
	return p.Object == ""
}

// IsDir reports whether the object component ends in a trailing slash,
// which marks directory semantics at the facade layer. The slash is
// preserved by Parse, not stripped.
func (p Path) IsDir() bool {
	return p.Object != "" && strings.HasSuffix(p.Object, "/")
}

// String renders p back into a gs:// URI.
func (p Path) String() string {
	return scheme + p.Bucket + "/" + p.Object
}

// TrimmedObject returns Object with any single trailing slash removed.
func (p Path) TrimmedObject() string {
	return strings.TrimSuffix(p.Object, "/")
}

// Parse splits uri into (bucket, object). It fails with an invalid-argument
// style error when the scheme is absent or the bucket is empty. A trailing
// slash on the object is preserved. Object may be empty, denoting a
// bucket-root reference; operations that require an object must check
// IsBucketRoot themselves.
func Parse(uri string) (Path, error) {
	if !strings.HasPrefix(uri, scheme) {
		return Path{}, fmt.Errorf("gcspath: %q is not a gs:// uri", uri)
	}
	rest := uri[len(scheme):]
	if rest == "" {
		return Path{}, fmt.Errorf("gcspath: %q has an empty bucket", uri)
	}

	slash := strings.IndexByte(rest, '/')
	if slash == -1 {
		bucket := rest
		if bucket == "" {
			return Path{}, fmt.Errorf("gcspath: %q has an empty bucket", uri)
		}
		return Path{Bucket: bucket, Object: ""}, nil
	}

	bucket := rest[:slash]
	if bucket == "" {
		return Path{}, fmt.Errorf("gcspath: %q has an empty bucket", uri)
	}
	object := rest[slash+1:]
	return Path{Bucket: bucket, Object: object}, nil
}

// ParseRequireObject is Parse with the additional constraint that the
// object component is non-empty, for operations that cannot act on a
// bare bucket.
func ParseRequireObject(uri string) (Path, error) {
	p, err := Parse(uri)
	if err != nil {
		return Path{}, err
	}
	if p.Object == "" {
		return Path{}, fmt.Errorf("gcspath: %q has an empty object", uri)
	}
	return p, nil
}

// Join builds a gs:// URI from parts, matching String's format.
func Join(bucket, object string) string {
	return scheme + bucket + "/" + object
}
