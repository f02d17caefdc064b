package thread

import "github.com/cespare/xxhash/v2"

// memoCache is a small bounded memo table keyed by the xxhash of an
// input string, with FIFO eviction. It exists so repeated merges do not
// recompute normalization and scoring for the same message text on
// every render tick.
//
// The cache is not safe for concurrent use; the intended host is a
// single-threaded event loop and each Reconciler owns its own caches.
type memoCache[V any] struct {
	capacity int
	entries  map[uint64]V
	order    []uint64
}

const memoCacheCapacity = 320

func newMemoCache[V any](capacity int) *memoCache[V] {
	if capacity <= 0 {
		capacity = memoCacheCapacity
	}
	return &memoCache[V]{
		capacity: capacity,
		entries:  make(map[uint64]V, capacity),
	}
}

func memoKey(text string) uint64 { return xxhash.Sum64String(text) }

func (c *memoCache[V]) get(key uint64) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *memoCache[V]) put(key uint64, value V) {
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

func (c *memoCache[V]) len() int { return len(c.entries) }
