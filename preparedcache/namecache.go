package preparedcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"sync"
)

// DefaultNameCacheCapacity is the capacity NewNameCache uses when no positive capacity is given.
const DefaultNameCacheCapacity = 64

// NameCache is a name-only prepared-statement cache: it remembers which names have been prepared
// on a given connection, without full Statement records. None of this module's drivers uses it;
// the sqlcommon adapter keeps every engine's statements in engine.Handle.Statements.
//
// Internally backed by an LRU so repeated growth under load evicts the coldest name instead of
// growing without bound, which is the behavior a doubling-capacity array would eventually need
// anyway once it stopped growing.
type NameCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, struct{}]
}

// NewNameCache returns a NameCache that holds at most capacity names.
func NewNameCache(capacity int) *NameCache {
	if capacity <= 0 {
		capacity = DefaultNameCacheCapacity
	}

	cache, err := lru.New[string, struct{}](capacity)
	if err != nil {
		// Only returned by golang-lru for a non-positive size, which we've already guarded.
		panic(err)
	}

	return &NameCache{cache: cache}
}

// Add records name as prepared, evicting the least-recently-used name if the cache is full.
func (n *NameCache) Add(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cache.Add(name, struct{}{})
}

// Contains reports whether name is currently recorded as prepared.
func (n *NameCache) Contains(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cache.Contains(name)
}

// Remove forgets name, e.g. after the driver unprepares the underlying statement.
func (n *NameCache) Remove(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cache.Remove(name)
}

// Count returns the number of names currently recorded.
func (n *NameCache) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cache.Len()
}
