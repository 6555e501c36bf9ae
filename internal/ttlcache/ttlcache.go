// Package ttlcache provides a generic, capacity-bounded, TTL-expiring
// keyed cache. It backs the stat cache, matching-paths cache, and
// bucket-location cache in the gcsfs facade.
package ttlcache

import (
	"container/list"
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake clock so that
// TTL behavior is deterministic without sleeping.
type Clock func() time.Time

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
	elem       *list.Element
}

// Cache maps string keys to values of type V, evicting by insertion-order
// LRU on capacity overflow and by age on lookup.
//
// When maxAge or maxEntries is zero, the cache is disabled: Lookup always
// misses and Insert is a no-op. This lets callers opt out of caching
// without a separate branch at every call site.
type Cache[V any] struct {
	mu         sync.Mutex
	maxAge     time.Duration
	maxEntries int
	now        Clock

	entries map[string]*entry[V]
	order   *list.List // front = oldest, back = newest insertion
}

// New creates a Cache with the given TTL and capacity bound.
func New[V any](maxAge time.Duration, maxEntries int) *Cache[V] {
	return NewWithClock[V](maxAge, maxEntries, time.Now)
}

// NewWithClock is New with an injectable clock, for deterministic tests.
func NewWithClock[V any](maxAge time.Duration, maxEntries int, now Clock) *Cache[V] {
	return &Cache[V]{
		maxAge:     maxAge,
		maxEntries: maxEntries,
		now:        now,
		entries:    make(map[string]*entry[V]),
		order:      list.New(),
	}
}

// disabled reports whether this cache has been configured to always miss.
func (c *Cache[V]) disabled() bool {
	return c.maxAge == 0 || c.maxEntries == 0
}

// Lookup returns the cached value for key and true, or the zero value and
// false on a miss (absent, expired, or cache disabled).
func (c *Cache[V]) Lookup(key string) (V, bool) {
	var zero V
	if c.disabled() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.insertedAt) > c.maxAge {
		c.removeLocked(e)
		return zero, false
	}
	return e.value, true
}

// Insert records value under key with the current time as its insertion
// timestamp, evicting the oldest entry if this would exceed maxEntries.
// No-op when the cache is disabled.
func (c *Cache[V]) Insert(key string, value V) {
	if c.disabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}

	e := &entry[V]{key: key, value: value, insertedAt: c.now()}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e

	for len(c.entries) > c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry[V]))
	}
}

// Delete removes key, if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.removeLocked(e)
	}
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
	c.order = list.New()
}

// removeLocked deletes e from both the map and the LRU order. Callers
// must hold c.mu.
func (c *Cache[V]) removeLocked(e *entry[V]) {
	delete(c.entries, e.key)
	if e.elem != nil {
		c.order.Remove(e.elem)
	}
}

// Len returns the number of live entries, including ones that have
// expired by age but have not yet been looked up. Used by tests.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Each calls fn for every live entry, in oldest-to-newest insertion
// order. fn must not call back into the cache. Used by the snapshot
// writer to serialize cache contents.
func (c *Cache[V]) Each(fn func(key string, value V, insertedAt time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[V])
		fn(e.key, e.value, e.insertedAt)
	}
}
