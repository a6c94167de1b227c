// Package preparedcache holds the prepared-statement bookkeeping a connection needs: a
// fixed-capacity, scan-for-minimum LRU cache keyed by statement name, plus a name-only cache
// that only remembers which names exist.
package preparedcache

import (
	"github.com/pkg/errors"
	"sync"
)

// ErrNotFound is returned by lookups for a statement name that isn't cached.
var ErrNotFound = errors.New("preparedcache: statement not found")

// Statement is one cached prepared statement belonging to a connection.
type Statement struct {
	Name         string
	SQLTemplate  string
	EngineHandle any
	UsageCount   uint64
	LastUsedTick uint64
}

// Cache is a fixed-size, per-connection prepared-statement cache. Once full, inserting a new
// statement evicts the entry with the smallest LastUsedTick, breaking ties toward the lowest
// slot index, exactly as a parallel-array scan would.
type Cache struct {
	mu       sync.Mutex
	slots    []*Statement
	tick     uint64
	capacity int
}

// NewCache returns a Cache that holds at most capacity statements at a time.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{slots: make([]*Statement, 0, capacity), capacity: capacity}
}

// Count returns the number of statements currently cached.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Get returns the statement cached under name, bumping its usage tick, or ErrNotFound.
func (c *Cache) Get(name string) (*Statement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stmt := c.find(name); stmt != nil {
		c.touch(stmt)
		return stmt, nil
	}

	return nil, ErrNotFound
}

// Insert adds a new statement to the cache. If the cache is already at capacity, the
// least-recently-used entry (smallest LastUsedTick, ties broken by lowest slot index) is
// evicted first and returned via evicted; evicted is nil when no eviction was necessary. A
// statement already cached under the same name is replaced in place without eviction.
func (c *Cache) Insert(name, sqlTemplate string, engineHandle any) (evicted *Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stmt := &Statement{Name: name, SQLTemplate: sqlTemplate, EngineHandle: engineHandle}

	for i, existing := range c.slots {
		if existing.Name == name {
			c.slots[i] = stmt
			c.touch(stmt)
			return nil
		}
	}

	if len(c.slots) < c.capacity {
		c.slots = append(c.slots, stmt)
		c.touch(stmt)
		return nil
	}

	minIdx := 0
	for i, existing := range c.slots {
		if existing.LastUsedTick < c.slots[minIdx].LastUsedTick {
			minIdx = i
		}
	}

	evicted = c.slots[minIdx]
	c.slots[minIdx] = stmt
	c.touch(stmt)

	return evicted
}

// Remove drops the statement cached under name, if any, and returns it. It does not touch the
// native statement handle.
func (c *Cache) Remove(name string) (*Statement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.slots {
		if existing.Name == name {
			c.slots = append(c.slots[:i], c.slots[i+1:]...)
			return existing, true
		}
	}

	return nil, false
}

// Names returns the names of all currently cached statements, in slot order.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.slots))
	for i, stmt := range c.slots {
		names[i] = stmt.Name
	}
	return names
}

func (c *Cache) find(name string) *Statement {
	for _, existing := range c.slots {
		if existing.Name == name {
			return existing
		}
	}
	return nil
}

func (c *Cache) touch(stmt *Statement) {
	c.tick++
	stmt.UsageCount++
	stmt.LastUsedTick = c.tick
}
