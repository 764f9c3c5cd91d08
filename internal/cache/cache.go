// Package cache memoizes pipeline results by page fingerprint.
//
// The cache is in-memory and synchronous. Freshness is carried by the
// fingerprint itself (its time bucket), so Get never inspects clocks: a
// lookup from a new bucket simply has a different key and misses.
// Capacity is unbounded unless configured; eviction, when needed, drops
// the least-recently-inserted entry.
package cache

import (
	"sync"

	"github.com/pageaudit/pageaudit/internal/fingerprint"
)

// Cache is a mutex-guarded fingerprint-keyed store. Put is append-only
// per key: concurrent writes for the same fingerprint are idempotent
// (last write wins, no merge).
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[fingerprint.Fingerprint]V
	order    []fingerprint.Fingerprint // insertion order, oldest first
}

// New creates a cache. capacity <= 0 means unbounded.
func New[V any](capacity int) *Cache[V] {
	return &Cache[V]{
		capacity: capacity,
		entries:  make(map[fingerprint.Fingerprint]V),
	}
}

// Get returns the entry for fp, if present.
func (c *Cache[V]) Get(fp fingerprint.Fingerprint) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[fp]
	return v, ok
}

// Put stores v under fp, evicting the oldest insertion when over
// capacity. Re-putting an existing key overwrites without growing.
func (c *Cache[V]) Put(fp fingerprint.Fingerprint, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fp]; !exists {
		c.order = append(c.order, fp)
		if c.capacity > 0 && len(c.order) > c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[fp] = v
}

// Len reports the number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
