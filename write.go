package gcsfs

import (
	"bytes"
	"context"
	"sync"
)

// WriteHandle accumulates appended bytes in a local buffer until Close
// or Sync, at which point the resumable upload state machine drives the
// whole payload to GCS in one call (spec section 4.6: writes always
// produce a new generation of the whole object; no partial overwrite).
type WriteHandle struct {
	fs     *FileSystem
	uri    string
	bucket string
	object string

	mu     sync.Mutex
	buf    bytes.Buffer
	dirty  bool
	closed bool
}

// OpenForWrite validates path and returns a handle. The upload session
// itself is created lazily, on first Sync/Close.
func (fs *FileSystem) OpenForWrite(ctx context.Context, uri string) (*WriteHandle, error) {
	p, err := parsePathRequireObject(uri)
	if err != nil {
		return nil, err
	}
	if err := fs.checkLocation(ctx, p.Bucket); err != nil {
		return nil, err
	}
	return &WriteHandle{fs: fs, uri: uri, bucket: p.Bucket, object: p.TrimmedObject()}, nil
}

// OpenForAppend reads the existing object (if any) into the handle's
// local buffer, then behaves exactly as a write handle: appended bytes
// accumulate after the existing content and the whole result becomes
// the object's next generation on Close/Sync.
func (fs *FileSystem) OpenForAppend(ctx context.Context, uri string) (*WriteHandle, error) {
	h, err := fs.OpenForWrite(ctx, uri)
	if err != nil {
		return nil, err
	}

	exists, err := fs.FileExists(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !exists {
		return h, nil
	}

	rh, err := fs.OpenForRead(ctx, uri)
	if err != nil {
		return nil, err
	}
	stats, err := fs.Stat(ctx, uri)
	if err != nil {
		return nil, err
	}
	if stats.Size > 0 {
		existing, err := rh.Read(ctx, 0, stats.Size)
		if err != nil && !IsOutOfRange(err) {
			return nil, err
		}
		h.buf.Write(existing)
	}
	return h, nil
}

// Write appends p to the handle's local buffer and reports it as
// dirty. It never itself issues an HTTP call.
func (h *WriteHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, _ := h.buf.Write(p)
	h.dirty = true
	return n, nil
}

// Tell reports the current buffered length.
func (h *WriteHandle) Tell() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(h.buf.Len())
}

// Sync is a no-op when the buffer is clean; otherwise it drives the
// resumable upload state machine with the buffer's full contents and,
// on success, invalidates the stat and block-cache entries for path
// (spec section 3, invariant 5).
func (h *WriteHandle) Sync(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.syncLocked(ctx)
}

func (h *WriteHandle) syncLocked(ctx context.Context) error {
	if !h.dirty {
		return nil
	}

	body := make([]byte, h.buf.Len())
	copy(body, h.buf.Bytes())

	if err := h.fs.uploader.Upload(ctx, h.bucket, h.object, body); err != nil {
		return wrapError(classifyKind(err), h.uri, err, "uploading")
	}

	h.fs.invalidate(h.uri)
	h.dirty = false
	return nil
}

// Flush is Sync when dirty, a no-op otherwise (spec section 4.6).
func (h *WriteHandle) Flush(ctx context.Context) error {
	return h.Sync(ctx)
}

// Close runs Sync if the buffer is dirty and reports its terminal
// status; per spec section 7, file-handle close always reports the
// terminal status of any deferred I/O. Calling Close more than once is
// safe and reports nil after the first call.
func (h *WriteHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.syncLocked(ctx)
}
