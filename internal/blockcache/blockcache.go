// Package blockcache implements the block-aligned, content-addressed
// LRU cache of spec section 4.3: fixed-size blocks keyed by (path,
// signature, aligned offset), coalesced concurrent fetches, and
// capacity bounded in total bytes with LRU eviction that never evicts a
// block currently being read.
package blockcache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// Signature identifies a version of a file; block-cache entries for a
// path are only valid for the signature under which they were fetched
// (spec section 3, invariant 2).
type Signature struct {
	Size       int64
	Generation int64
	Updated    time.Time
}

// Fetcher retrieves the bytes of one block from the backing store.
// blockSize is the configured block size; the final block of a file may
// return fewer bytes than requested (partial tail, spec section 4.3.3).
type Fetcher func(ctx context.Context, path string, blockOffset, blockSize int64) ([]byte, error)

type state int

const (
	stateCreated state = iota
	stateFetching
	stateFinished
	stateError
)

type blockKey struct {
	path   string
	sig    Signature
	offset int64
}

type block struct {
	key       blockKey
	state     state
	data      []byte
	err       error
	insertAt  time.Time
	readers   int
	done      chan struct{}
	listElem  *list.Element
}

// Cache is a block-aligned LRU content cache. The zero value is not
// usable; construct with New.
type Cache struct {
	blockSize     int64
	maxBytes      int64
	maxStaleness  time.Duration
	now           func() time.Time

	mu         sync.Mutex
	blocks     map[blockKey]*block
	order      *list.List // MRU at front, LRU at back
	totalBytes int64
}

// New builds a Cache with the given block size, total byte capacity,
// and staleness TTL (0 disables the TTL).
func New(blockSize, maxBytes int64, maxStaleness time.Duration) *Cache {
	return NewWithClock(blockSize, maxBytes, maxStaleness, time.Now)
}

func NewWithClock(blockSize, maxBytes int64, maxStaleness time.Duration, now func() time.Time) *Cache {
	return &Cache{
		blockSize:    blockSize,
		maxBytes:     maxBytes,
		maxStaleness: maxStaleness,
		now:          now,
		blocks:       make(map[blockKey]*block),
		order:        list.New(),
	}
}

// BlockSize reports the configured alignment/fetch granularity.
func (c *Cache) BlockSize() int64 { return c.blockSize }

// ErrOutOfRange is returned by Read when offset is at or past the
// object's size (as asserted by the caller via size).
type ErrOutOfRange struct {
	Path   string
	Offset int64
	Size   int64
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("blockcache: read %s at offset %d: past end of file (size %d)", e.Path, e.Offset, e.Size)
}

// Read returns up to n bytes of path starting at offset, under sig.
// size is the file's total size (from the caller's current stat),
// used to detect end-of-file. It ensures every block touching
// [offset, offset+n) is loaded (via fetch on a miss), blocking on any
// fetch already in flight for the same block, and concatenates the
// result. A short read (fewer than n bytes, including zero) is
// reported via ErrOutOfRange alongside the bytes actually available.
func (c *Cache) Read(ctx context.Context, path string, sig Signature, size, offset, n int64, fetch Fetcher) ([]byte, error) {
	if offset >= size {
		return nil, &ErrOutOfRange{Path: path, Offset: offset, Size: size}
	}
	requested := n
	if offset+n > size {
		n = size - offset
	}

	out := make([]byte, 0, n)
	pos := offset
	end := offset + n
	for pos < end {
		aligned := (pos / c.blockSize) * c.blockSize
		data, err := c.loadBlock(ctx, path, sig, aligned, fetch)
		if err != nil {
			return out, err
		}
		within := pos - aligned
		if within >= int64(len(data)) {
			// The block ended before this offset: a genuinely short
			// object, or a fetcher that returned less than block_size.
			break
		}
		avail := int64(len(data)) - within
		want := end - pos
		if avail > want {
			avail = want
		}
		out = append(out, data[within:within+avail]...)
		pos += avail
		if int64(len(data)) < c.blockSize {
			break
		}
	}

	if int64(len(out)) < requested {
		return out, &ErrOutOfRange{Path: path, Offset: offset, Size: size}
	}
	return out, nil
}

// loadBlock returns the bytes of the block at aligned, fetching on a
// miss or joining an in-flight fetch (invariant 1), and treating a
// stale FINISHED block (age > maxStaleness, when configured) as
// missing (spec section 4.3.4).
func (c *Cache) loadBlock(ctx context.Context, path string, sig Signature, aligned int64, fetch Fetcher) ([]byte, error) {
	key := blockKey{path: path, sig: sig, offset: aligned}

	c.mu.Lock()
	b, ok := c.blocks[key]
	if ok && b.state == stateFinished && c.isStale(b) {
		c.removeLocked(b)
		ok = false
	}
	if !ok {
		b = &block{key: key, state: stateCreated, done: make(chan struct{})}
		c.blocks[key] = b
		b.listElem = c.order.PushFront(b)
	}

	switch b.state {
	case stateFinished:
		b.readers++
		c.touchLocked(b)
		data := b.data
		c.mu.Unlock()
		defer c.releaseReader(key)
		return data, nil
	case stateFetching:
		b.readers++
		c.mu.Unlock()
		<-b.done
		defer c.releaseReader(key)
		if b.state == stateError {
			return nil, b.err
		}
		return b.data, nil
	default: // stateCreated: this caller issues the fetch
		b.state = stateFetching
		b.readers++
		c.mu.Unlock()

		data, err := fetch(ctx, path, aligned, c.blockSize)

		c.mu.Lock()
		if err != nil {
			b.state = stateError
			b.err = err
		} else {
			b.state = stateFinished
			b.data = data
			b.insertAt = c.clock()
			c.totalBytes += int64(len(data))
			c.evictLocked()
		}
		close(b.done)
		c.mu.Unlock()

		defer c.releaseReader(key)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func (c *Cache) releaseReader(key blockKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blocks[key]
	if !ok {
		return
	}
	b.readers--
	if b.state == stateError && b.readers <= 0 {
		c.removeLocked(b)
	}
}

func (c *Cache) isStale(b *block) bool {
	if c.maxStaleness <= 0 {
		return false
	}
	return c.clock().Sub(b.insertAt) > c.maxStaleness
}

func (c *Cache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Cache) touchLocked(b *block) {
	c.order.MoveToFront(b.listElem)
}

// evictLocked runs LRU eviction (from the back of order) until
// totalBytes <= maxBytes, skipping (and thus never evicting) any block
// with readers > 0 or still in flight (invariant 3).
func (c *Cache) evictLocked() {
	if c.maxBytes <= 0 {
		return
	}
	for c.totalBytes > c.maxBytes {
		victim := c.findEvictableLocked()
		if victim == nil {
			return
		}
		c.removeLocked(victim)
	}
}

func (c *Cache) findEvictableLocked() *block {
	for e := c.order.Back(); e != nil; e = e.Prev() {
		b := e.Value.(*block)
		if b.state == stateFinished && b.readers <= 0 {
			return b
		}
	}
	return nil
}

func (c *Cache) removeLocked(b *block) {
	if b.state == stateFinished {
		c.totalBytes -= int64(len(b.data))
	}
	if b.listElem != nil {
		c.order.Remove(b.listElem)
	}
	delete(c.blocks, b.key)
}

// RemoveFile discards the cached blocks for path, across every
// signature (spec section 4.3's RemoveFile). A block that a reader is
// still using is kept.
func (c *Cache) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, b := range c.blocks {
		if key.path == path && b.readers <= 0 {
			c.removeLocked(b)
		}
	}
}

// Flush discards every cached block, regardless of path, except blocks
// that a reader is still using.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.blocks {
		if b.readers <= 0 {
			c.removeLocked(b)
		}
	}
}

// Len reports the number of blocks currently tracked (any state),
// for tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// TotalBytes reports the sum of bytes held by FINISHED blocks.
func (c *Cache) TotalBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}
