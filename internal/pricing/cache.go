package pricing

import (
	"sync"
	"time"
)

// DefaultTTL is how long a populated cache stays fresh without an update.
const DefaultTTL = 1800 * time.Second

// Cache holds price records behind a single freshness timestamp for the
// whole store. Staleness is all-or-nothing: entries never expire
// individually, and a stale store answers like an empty one.
type Cache struct {
	ttl time.Duration

	mu        sync.RWMutex
	records   map[int]Record
	updatedAt time.Time
	fetching  bool
}

// NewCache creates an empty cache. A non-positive ttl falls back to
// DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, records: make(map[int]Record)}
}

// IsValid reports whether the store is non-empty and fresher than the TTL.
func (c *Cache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validLocked()
}

func (c *Cache) validLocked() bool {
	if len(c.records) == 0 || c.updatedAt.IsZero() {
		return false
	}
	return time.Since(c.updatedAt) < c.ttl
}

// Get returns the record for appID. A stale store misses even for keys it
// still holds.
func (c *Cache) Get(appID int) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.validLocked() {
		return Record{}, false
	}
	r, ok := c.records[appID]
	return r, ok
}

// GetAll returns a copy of the store, or an empty map when stale. Callers
// may mutate the returned map freely.
func (c *Cache) GetAll() map[int]Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]Record, len(c.records))
	if !c.validLocked() {
		return out
	}
	for id, r := range c.records {
		out[id] = r
	}
	return out
}

// Update merges records into the store (new keys added, existing keys
// overwritten) and refreshes the freshness timestamp. This is the only
// operation that extends validity.
func (c *Cache) Update(records map[int]Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, r := range records {
		c.records[id] = r
	}
	c.updatedAt = time.Now()
}

// Clear empties the store and resets the timestamp; IsValid stays false
// until the next Update.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[int]Record)
	c.updatedAt = time.Time{}
}

// SetFetching marks a refresh as in progress. It is a cooperative hint for
// callers coordinating refreshes, not a lock.
func (c *Cache) SetFetching(v bool) {
	c.mu.Lock()
	c.fetching = v
	c.mu.Unlock()
}

// IsFetching reports whether a refresh is marked in progress.
func (c *Cache) IsFetching() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetching
}
