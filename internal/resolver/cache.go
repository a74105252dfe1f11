// internal/resolver/cache.go
package resolver

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type cacheEntry struct {
	result    *NameResult
	expiresAt time.Time
}

// Cache maps mint addresses to resolved name results with a TTL. Entries are
// evicted lazily on lookup; CleanupStale exists for the periodic sweep so the
// map does not accumulate addresses that are never looked up again. Address
// cardinality is naturally bounded by the platform's token creation rate.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   Clock
	logger  *zap.Logger

	// Statistics (accessed atomically)
	hits   uint64
	misses uint64
}

// NewCache creates a result cache with the given default TTL.
func NewCache(ttl time.Duration, clock Clock, logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   clock,
		logger:  logger.Named("cache"),
	}
}

// Get returns the cached result for address, or nil if absent or expired.
// An expired entry is removed on the spot.
func (c *Cache) Get(address string) *NameResult {
	c.mu.RLock()
	entry, exists := c.entries[address]
	c.mu.RUnlock()

	if !exists {
		atomic.AddUint64(&c.misses, 1)
		return nil
	}

	if !c.clock.Now().Before(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if cur, ok := c.entries[address]; ok && !c.clock.Now().Before(cur.expiresAt) {
			delete(c.entries, address)
		}
		c.mu.Unlock()
		atomic.AddUint64(&c.misses, 1)
		return nil
	}

	atomic.AddUint64(&c.hits, 1)
	return entry.result
}

// Put stores a result under the cache's default TTL.
func (c *Cache) Put(address string, result *NameResult) {
	c.PutTTL(address, result, c.ttl)
}

// PutTTL stores a result that expires after ttl.
func (c *Cache) PutTTL(address string, result *NameResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[address] = cacheEntry{
		result:    result,
		expiresAt: c.clock.Now().Add(ttl),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit/miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// CleanupStale removes expired entries and returns how many were dropped.
func (c *Cache) CleanupStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for address, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, address)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Cleaned up stale cache entries",
			zap.Int("removed", removed),
			zap.Int("remaining", len(c.entries)))
	}
	return removed
}
