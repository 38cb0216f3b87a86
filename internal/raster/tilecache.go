package raster

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TileCache is a concurrent-safe LRU cache of encoded basemap tiles with
// TTL expiration. One cache can be shared by every map rendered in a run.
type TileCache struct {
	mu         sync.Mutex
	entries    map[string]*tileCacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type tileCacheEntry struct {
	data      []byte
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewTileCache creates a TileCache holding at most maxEntries tiles for ttl.
func NewTileCache(maxEntries int, ttl time.Duration) *TileCache {
	return &TileCache{
		entries:    make(map[string]*tileCacheEntry),
		maxEntries: max(maxEntries, 1),
		ttl:        ttl,
	}
}

func tileKey(source string, z, x, y int) string {
	return fmt.Sprintf("%s/%d/%d/%d", source, z, x, y)
}

// Get returns a cached tile, or nil on miss or expiry.
func (c *TileCache) Get(source string, z, x, y int) []byte {
	key := tileKey(source, z, x, y)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry.data
}

// Put stores a tile, evicting the least recently used entry when full.
func (c *TileCache) Put(source string, z, x, y int, data []byte) {
	key := tileKey(source, z, x, y)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &tileCacheEntry{data: data, createdAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &tileCacheEntry{data: data, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Stats returns cache statistics.
func (c *TileCache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return CacheStats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (c *TileCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
