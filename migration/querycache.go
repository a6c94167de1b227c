package migration

import "sync"

// ReverseMigrationType is the QueryCacheEntry.Type used for reverse-migration scripts, looked up
// by (ref=APPLY, type=ReverseMigrationType) during the reverse-apply loop.
const ReverseMigrationType int32 = 1001

// QueryCacheEntry is one named SQL definition belonging to a database's per-database query
// library, indexed by (Ref, Type).
type QueryCacheEntry struct {
	Ref            int64
	Type           int32
	SQL            string
	Description    string
	QueueLabel     string
	TimeoutSeconds uint32
}

type cacheKey struct {
	ref int64
	typ int32
}

// QueryCache is a lead queue's resident set of QueryCacheEntry records, populated from the
// payload/migration source during bootstrap and consulted by the forward/reverse apply loops.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]QueryCacheEntry
}

// NewQueryCache returns an empty QueryCache.
func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[cacheKey]QueryCacheEntry)}
}

// Put records entry, indexed by (entry.Ref, entry.Type), overwriting any existing entry with
// the same key.
func (c *QueryCache) Put(entry QueryCacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{entry.Ref, entry.Type}] = entry
}

// Get looks up the entry for (ref, typ).
func (c *QueryCache) Get(ref int64, typ int32) (QueryCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey{ref, typ}]
	return entry, ok
}

// Count returns the number of cached entries.
func (c *QueryCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
