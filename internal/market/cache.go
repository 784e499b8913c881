package market

import (
	"sync"
	"time"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

type cacheEntry struct {
	data      contracts.MarketData
	fetchedAt time.Time
}

// SnapshotCache is an in-process TTL cache of market snapshots
// ⭐ SSOT: 프로세스 내 시세 캐싱은 이 구조체에서만
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// NewSnapshotCache creates a new snapshot cache
func NewSnapshotCache(ttl time.Duration, log *logger.Logger) *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  log,
	}
}

// Get returns a snapshot younger than the TTL
func (c *SnapshotCache) Get(key string) (contracts.MarketData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return contracts.MarketData{}, false
	}
	return entry.data, true
}

// Set stores a snapshot stamped with the current time
func (c *SnapshotCache) Set(key string, data contracts.MarketData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{data: data, fetchedAt: c.now()}
}

// Delete removes a snapshot
func (c *SnapshotCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of snapshots held, expired ones included
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanExpired removes snapshots older than the TTL
func (c *SnapshotCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, entry := range c.entries {
		if now.Sub(entry.fetchedAt) >= c.ttl {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Debug("Cleaned expired market snapshots")
	}
	return count
}
