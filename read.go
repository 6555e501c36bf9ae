package gcsfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/Spider8801/gcsfs/internal/blockcache"
	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

const dataBase = "https://storage.googleapis.com"

// ReadHandle is a read-only handle over one object, returned by
// OpenForRead. It stores only (path, last-observed signature), not
// cached bytes (spec section 5): closing it never evicts blocks.
type ReadHandle struct {
	fs     *FileSystem
	uri    string
	bucket string
	object string
}

// OpenForRead validates path and returns a handle for repeated ranged
// reads.
func (fs *FileSystem) OpenForRead(ctx context.Context, uri string) (*ReadHandle, error) {
	p, err := parsePathRequireObject(uri)
	if err != nil {
		return nil, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return nil, err
	}
	return &ReadHandle{fs: fs, uri: uri, bucket: p.Bucket, object: p.TrimmedObject()}, nil
}

// Close is a no-op: a read handle owns no resources beyond its path and
// last-observed signature (spec section 5).
func (h *ReadHandle) Close() error { return nil }

// Read returns up to n bytes starting at offset. When the facade's
// block cache is configured (BlockSize > 0), it obtains the current
// signature via stat (consulting the stat cache) and serves through
// internal/blockcache; otherwise it issues a direct ranged GET.
func (h *ReadHandle) Read(ctx context.Context, offset, n int64) ([]byte, error) {
	if h.fs.opts.blockCacheEnabled() {
		return h.readThroughBlockCache(ctx, offset, n)
	}
	return h.readDirect(ctx, offset, n)
}

func (h *ReadHandle) readThroughBlockCache(ctx context.Context, offset, n int64) ([]byte, error) {
	stats, sig, err := h.currentSignature(ctx)
	if err != nil {
		// Per the Open Question in spec section 9: a failed stat fails
		// only this read; the handle remains usable.
		return nil, err
	}
	fetch := func(ctx context.Context, path string, blockOffset, blockSize int64) ([]byte, error) {
		h.fs.tapBlockRequest(h.uri, blockOffset)
		data, err := h.fetchRange(ctx, blockOffset, blockOffset+blockSize-1)
		if err == nil {
			h.fs.tapBlockRetrieved(h.uri, blockOffset, int64(len(data)))
		}
		return data, err
	}

	bsig := blockcache.Signature{Size: sig.Size, Generation: sig.Generation, Updated: sig.Updated}
	data, err := h.fs.blockCache.Read(ctx, h.uri, bsig, stats.Size, offset, n, fetch)
	if err != nil {
		var oor *blockcache.ErrOutOfRange
		if errors.As(err, &oor) {
			return data, newError(KindOutOfRange, h.uri, "read past end of file (size %d)", stats.Size)
		}
		return data, wrapError(fetchRangeKind(err), h.uri, err, "reading block")
	}
	return data, nil
}

func (h *ReadHandle) currentSignature(ctx context.Context) (FileStatistics, Signature, error) {
	if entry, hit := h.fs.statCache.Lookup(h.uri); hit {
		h.fs.tapStat(h.uri, true)
		return entry.stats, entry.sig, nil
	}
	h.fs.tapStat(h.uri, false)
	stats, sig, err := h.fs.statObject(ctx, h.uri, h.bucket, h.object)
	if err != nil {
		return FileStatistics{}, Signature{}, err
	}
	h.fs.statCache.Insert(h.uri, statEntry{stats: stats, sig: sig})
	return stats, sig, nil
}

// readDirect bypasses the block cache entirely (BlockSize == 0): every
// call issues its own ranged GET. A response shorter than requested is
// out-of-range; a short response that ends before the stat-cached size
// (when one is cached) signals cache-vs-store inconsistency and is
// reported internal (spec section 4.7).
func (h *ReadHandle) readDirect(ctx context.Context, offset, n int64) ([]byte, error) {
	h.fs.tapBlockRequest(h.uri, offset)
	data, err := h.fetchRange(ctx, offset, offset+n-1)
	if err != nil {
		return nil, wrapError(fetchRangeKind(err), h.uri, err, "reading range")
	}
	h.fs.tapBlockRetrieved(h.uri, offset, int64(len(data)))

	if entry, hit := h.fs.statCache.Lookup(h.uri); hit {
		if int64(len(data)) < n && offset+int64(len(data)) < entry.stats.Size {
			return data, newError(KindInternal, h.uri,
				"observed %d bytes at offset %d but stat cache reports size %d", len(data), offset, entry.stats.Size)
		}
	}

	if int64(len(data)) < n {
		return data, newError(KindOutOfRange, h.uri, "short read: got %d of %d requested bytes", len(data), n)
	}
	return data, nil
}

// fetchRange serves one ranged byte fetch, either through the configured
// RangeFetcher accelerator or, by default, a ranged GET against the JSON
// API wrapped in the same retry loop (spec section 4.4, attempts <= 10)
// every other gcsmeta call gets. A non-ok response is returned as a
// *gcsrequest.StatusError so the caller can recover the real classified
// Kind instead of always reporting unavailable.
func (h *ReadHandle) fetchRange(ctx context.Context, begin, end int64) ([]byte, error) {
	if h.fs.opts.RangeFetcher != nil {
		data, err := h.fs.opts.RangeFetcher.Fetch(ctx, h.bucket, h.object, begin, end-begin+1)
		if err != nil {
			return nil, fmt.Errorf("gcsfs: reading %s via range fetcher: %w", h.uri, err)
		}
		return data, nil
	}

	uri := fmt.Sprintf("%s/%s/%s", dataBase, h.bucket, h.object)

	var data []byte
	err := gcsrequest.Do(ctx, h.fs.retry, nil, func(attempt int) (gcsrequest.Kind, error) {
		call, err := h.fs.helper.Get(ctx, uri, begin, end)
		if err != nil {
			return gcsrequest.KindUnavailable, err
		}
		if call.Kind != gcsrequest.KindOK {
			return call.Kind, gcsrequest.NewStatusError(call.Kind, call.Code,
				"gcsfs: reading %s: http %d (%s)", h.uri, call.Code, call.Kind)
		}
		data = call.Req.ResponseBody()
		return gcsrequest.KindOK, nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// fetchRangeKind classifies a fetchRange error into this package's Kind,
// recovering the real HTTP classification from a *gcsrequest.StatusError
// or *gcsrequest.AbortedError instead of assuming unavailable.
func fetchRangeKind(err error) Kind {
	var aborted *gcsrequest.AbortedError
	if errors.As(err, &aborted) {
		return KindAborted
	}
	var statusErr *gcsrequest.StatusError
	if errors.As(err, &statusErr) {
		return kindFromRequestKind(statusErr.Kind)
	}
	return KindUnavailable
}

func (fs *FileSystem) tapBlockRequest(uri string, offset int64) {
	if fs.opts.StatsTap != nil {
		fs.opts.StatsTap.GotBlockRequest(uri, offset)
	}
}

func (fs *FileSystem) tapBlockRetrieved(uri string, offset, n int64) {
	if fs.opts.StatsTap != nil {
		fs.opts.StatsTap.GotBlockRetrieved(uri, offset, n)
	}
}

