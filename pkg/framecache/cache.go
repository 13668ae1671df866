// Package framecache stores rendered frames keyed by quantized time,
// validated against the composition fingerprint. The cache is
// advisory: any read may miss and the host falls back to its render
// function. No operation blocks or fails permanently.
package framecache

import (
	"image"
	"sort"
	"sync"

	"github.com/user/previewcache/pkg/fingerprint"
	"github.com/user/previewcache/pkg/metrics"
	"github.com/user/previewcache/pkg/ports"
	"github.com/user/previewcache/pkg/timeline"
)

const (
	// DefaultCapacity is the default maximum number of cached frames.
	DefaultCapacity = 300
	// DefaultEvictFraction is the share of entries removed per
	// eviction pass. An empirical tuning constant, not an invariant.
	DefaultEvictFraction = 0.2
)

// Options configures a Cache.
type Options struct {
	// Capacity is the maximum number of entries (default 300).
	Capacity int
	// Resolution is the cache granularity in buckets per second
	// (default 30).
	Resolution int
	// EvictFraction is the share of entries removed per eviction pass
	// (default 0.2, always at least one entry).
	EvictFraction float64
}

// entry is a cached frame plus the fingerprint it was rendered under
// and its last-access sequence number.
type entry struct {
	frame       image.Image
	fingerprint string
	access      uint64
}

// Cache is the frame cache. All mutating operations are atomic with
// respect to each other; the entry-count-never-exceeds-capacity
// invariant holds after every mutating operation returns.
type Cache struct {
	mu       sync.Mutex
	entries  map[int64]*entry
	seq      uint64
	capacity int
	fraction float64

	engine  *fingerprint.Engine
	logger  ports.Logger
	metrics *metrics.Metrics
}

// New creates a Cache. logger must be non-nil; metrics may be nil.
func New(opts Options, logger ports.Logger, m *metrics.Metrics) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.EvictFraction <= 0 || opts.EvictFraction > 1 {
		opts.EvictFraction = DefaultEvictFraction
	}
	return &Cache{
		entries:  make(map[int64]*entry),
		capacity: opts.Capacity,
		fraction: opts.EvictFraction,
		engine:   fingerprint.New(opts.Resolution),
		logger:   logger.WithComponent("framecache"),
		metrics:  m,
	}
}

// Engine returns the fingerprint engine the cache validates against.
func (c *Cache) Engine() *fingerprint.Engine { return c.engine }

// Capacity returns the configured maximum entry count.
func (c *Cache) Capacity() int { return c.capacity }

// IsCached reports whether a valid entry exists for t under snap.
// It never mutates the cache.
func (c *Cache) IsCached(t float64, snap *timeline.Snapshot) bool {
	key := c.engine.Bucket(t)
	fp := c.engine.Compute(snap, t)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.fingerprint == fp
}

// Get returns the cached frame for t under snap. A stale entry
// (fingerprint mismatch) is removed eagerly and reported as a miss.
// A valid hit refreshes the entry's access order.
func (c *Cache) Get(t float64, snap *timeline.Snapshot) (image.Image, bool) {
	key := c.engine.Bucket(t)
	fp := c.engine.Compute(snap, t)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.CacheLookup(metrics.StatusMiss)
		return nil, false
	}
	if e.fingerprint != fp {
		delete(c.entries, key)
		c.metrics.CacheLookup(metrics.StatusStale)
		c.logger.Debug("Removed stale entry at bucket %d", key)
		return nil, false
	}

	c.seq++
	e.access = c.seq
	c.metrics.CacheLookup(metrics.StatusHit)
	return e.frame, true
}

// Put stores a rendered frame for t under snap, evicting a batch of
// the least recently used entries first when the cache is full.
// The last writer for a given key wins.
func (c *Cache) Put(t float64, snap *timeline.Snapshot, frame image.Image) {
	key := c.engine.Bucket(t)
	fp := c.engine.Compute(snap, t)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	c.seq++
	c.entries[key] = &entry{frame: frame, fingerprint: fp, access: c.seq}
	c.metrics.CacheInserted()
}

// evictLocked removes the oldest-accessed fraction of entries, at
// least one. Batch eviction amortizes the scan cost across many
// insertions instead of evicting one entry per insert.
func (c *Cache) evictLocked() {
	n := int(float64(c.capacity) * c.fraction)
	if n < 1 {
		n = 1
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}

	type aged struct {
		key    int64
		access uint64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, access: e.access})
	}
	// Partial selection would do; a full sort is simple and the pass
	// is already amortized.
	sort.Slice(all, func(i, j int) bool { return all[i].access < all[j].access })
	for i := 0; i < n; i++ {
		delete(c.entries, all[i].key)
	}

	c.metrics.CacheEvicted(n)
	c.logger.Debug("Evicted %d of %d entries", n, len(all))
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]*entry)
	c.logger.Debug("Cache invalidated")
}

// Size returns the current entry count.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
