package gcsfs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spider8801/gcsfs/internal/blockcache"
	"github.com/Spider8801/gcsfs/internal/gcsauth"
	"github.com/Spider8801/gcsfs/internal/gcsmeta"
	"github.com/Spider8801/gcsfs/internal/gcspath"
	"github.com/Spider8801/gcsfs/internal/gcsrequest"
	"github.com/Spider8801/gcsfs/internal/resumable"
	"github.com/Spider8801/gcsfs/internal/ttlcache"
)

// statEntry is the stat cache's value: a file's statistics together with
// the signature derived from them, so a cache hit is the sole authority
// for the signature until expiry or invalidation (spec section 3,
// invariant 4).
type statEntry struct {
	stats FileStatistics
	sig   Signature
}

// bucketLocationMaxEntries bounds the bucket-location cache; it has no
// TTL (it persists until FlushCaches per spec section 3), so this value
// only matters if a single process ever touches an implausible number
// of distinct buckets.
const bucketLocationMaxEntries = 1 << 16

// FileSystem is the public facade over one GCS-backed namespace (spec
// section 4.7). It orchestrates the stat/matching-paths/bucket-location
// caches, the block cache, and the metadata/resumable-upload clients
// against a single HTTP request factory.
type FileSystem struct {
	opts Options

	helper   *gcsrequest.Helper
	meta     *gcsmeta.Client
	uploader *resumable.Uploader
	zone     gcsrequest.ZoneProvider
	retry    gcsrequest.RetryConfig

	statCache          *ttlcache.Cache[statEntry]
	matchingPathsCache *ttlcache.Cache[[]string]
	bucketLocationCache *ttlcache.Cache[string]
	blockCache         *blockcache.Cache
}

// NewFileSystem builds a FileSystem from a request factory, auth
// provider, zone provider (used only when AllowedLocations is
// {"auto"}), and Options. A zero-value Retry or Timeout and a nil
// StatsTap in opts are replaced with defaults via Options.withDefaults;
// other zero-value fields keep their zero meaning.
func NewFileSystem(factory gcsrequest.Factory, auth gcsrequest.AuthProvider, zone gcsrequest.ZoneProvider, opts Options) *FileSystem {
	opts = opts.withDefaults()

	var header *gcsrequest.Header
	if opts.AdditionalHeader != nil {
		header = &gcsrequest.Header{Name: opts.AdditionalHeader.Name, Value: opts.AdditionalHeader.Value}
	}
	timeout := gcsrequest.TimeoutConfig{
		Connect:  opts.Timeout.Connect,
		Idle:     opts.Timeout.Idle,
		Metadata: opts.Timeout.Metadata,
		Read:     opts.Timeout.Read,
		Write:    opts.Timeout.Write,
	}
	helper := gcsrequest.NewHelper(factory, auth, timeout, header)
	retry := gcsrequest.RetryConfig{InitDelay: opts.Retry.InitDelay, MaxRetries: opts.Retry.MaxRetries}

	var blockCache *blockcache.Cache
	if opts.blockCacheEnabled() {
		blockCache = blockcache.New(opts.BlockSize, opts.MaxBytes, opts.MaxStaleness)
	}

	return &FileSystem{
		opts:     opts,
		helper:   helper,
		meta:     gcsmeta.NewClient(helper, retry, nil),
		uploader: resumable.NewUploader(helper, retry, nil),
		zone:     zone,
		retry:    retry,

		statCache:           ttlcache.New[statEntry](opts.StatCacheMaxAge, opts.StatCacheMaxEntries),
		matchingPathsCache:  ttlcache.New[[]string](opts.MatchingPathsCacheMaxAge, opts.MatchingPathsCacheMaxEntries),
		bucketLocationCache: ttlcache.New[string](100*365*24*time.Hour, bucketLocationMaxEntries),
		blockCache:          blockCache,
	}
}

// FlushCaches discards every cache entry: stat, matching-paths,
// bucket-location, and every block-cache entry.
func (fs *FileSystem) FlushCaches() {
	fs.statCache.Clear()
	fs.matchingPathsCache.Clear()
	fs.bucketLocationCache.Clear()
	if fs.blockCache != nil {
		fs.blockCache.Flush()
	}
}

// invalidate drops every cache entry referring to uri: its stat entry
// and block-cache entries. Called after a successful write, rename, or
// delete (spec section 3, invariant 5).
func (fs *FileSystem) invalidate(uri string) {
	fs.statCache.Delete(uri)
	if fs.blockCache != nil {
		fs.blockCache.RemoveFile(uri)
	}
}

// checkLocation enforces the location constraint (spec section 4.7):
// if AllowedLocations is nonempty, fetches (and caches) bucket's
// location on first access and fails with failed-precondition on
// mismatch.
func (fs *FileSystem) checkLocation(ctx context.Context, bucket string) error {
	if len(fs.opts.AllowedLocations) == 0 {
		return nil
	}

	location, ok := fs.bucketLocationCache.Lookup(bucket)
	if !ok {
		loc, err := fs.meta.BucketLocation(ctx, bucket)
		if err != nil {
			return wrapError(KindUnavailable, bucket, err, "checking bucket location")
		}
		location = loc
		fs.bucketLocationCache.Insert(bucket, location)
	}

	allowed := fs.effectiveAllowedLocations(ctx)
	for loc := range allowed {
		if strings.EqualFold(loc, location) {
			return nil
		}
	}
	return newError(KindFailedPrecondition, bucket,
		"bucket %q has location %q, not in allowed set %v", bucket, location, setKeys(allowed))
}

// effectiveAllowedLocations resolves "auto" into the zone provider's
// detected region, if configured; otherwise returns AllowedLocations
// unchanged.
func (fs *FileSystem) effectiveAllowedLocations(ctx context.Context) map[string]struct{} {
	if _, auto := fs.opts.AllowedLocations["auto"]; !auto {
		return fs.opts.AllowedLocations
	}
	if fs.zone == nil {
		return fs.opts.AllowedLocations
	}
	zone, err := fs.zone.GetZone(ctx)
	if err != nil {
		return fs.opts.AllowedLocations
	}
	return map[string]struct{}{strings.ToLower(gcsauth.EffectiveRegion(zone)): {}}
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// parsePath parses uri, wrapping gcspath's error into this package's
// taxonomy.
func parsePath(uri string) (gcspath.Path, error) {
	p, err := gcspath.Parse(uri)
	if err != nil {
		return gcspath.Path{}, wrapError(KindInvalidArgument, uri, err, "parsing path")
	}
	return p, nil
}

// parsePathRequireObject is parsePath plus the non-empty-object
// requirement most operations need.
func parsePathRequireObject(uri string) (gcspath.Path, error) {
	p, err := gcspath.ParseRequireObject(uri)
	if err != nil {
		return gcspath.Path{}, wrapError(KindInvalidArgument, uri, err, "parsing path")
	}
	return p, nil
}

// kindFromRequestKind maps a gcsrequest.Kind onto this package's Kind.
// The two taxonomies are deliberately kept separate (gcsrequest has no
// dependency on the facade); this is the one place they're bridged.
func kindFromRequestKind(k gcsrequest.Kind) Kind {
	switch k {
	case gcsrequest.KindNotFound:
		return KindNotFound
	case gcsrequest.KindPermissionDenied:
		return KindPermissionDenied
	case gcsrequest.KindFailedPrecondition:
		return KindFailedPrecondition
	case gcsrequest.KindInvalidArgument:
		return KindInvalidArgument
	case gcsrequest.KindResumeIncomplete, gcsrequest.KindUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}

// classifyKind maps a gcsmeta/resumable error onto this package's Kind.
// gcsmeta and resumable retry internally and only the terminal outcome
// reaches the facade, carried as a typed *gcsrequest.StatusError, a
// *gcsmeta.RewriteIncompleteError, or a *gcsrequest.AbortedError; this
// recovers the Kind via errors.As rather than matching rendered message
// text, which would also contain the caller-supplied bucket/object name.
func classifyKind(err error) Kind {
	var aborted *gcsrequest.AbortedError
	if errors.As(err, &aborted) {
		return KindAborted
	}

	var rewriteIncomplete *gcsmeta.RewriteIncompleteError
	if errors.As(err, &rewriteIncomplete) {
		return KindUnimplemented
	}

	var statusErr *gcsrequest.StatusError
	if errors.As(err, &statusErr) {
		return kindFromRequestKind(statusErr.Kind)
	}

	return KindInternal
}

