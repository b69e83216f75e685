package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cruxstack/email-trust-filter-go/internal/types"
)

type memoryEntry struct {
	result types.EvaluationResult
	expiry time.Time
}

// MemoryCache keeps results in process. Expired entries are dropped lazily on
// read and swept on write once the map grows past sweepThreshold.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

const sweepThreshold = 1024

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*types.EvaluationResult, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiry) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiry.Equal(entry.expiry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	result := entry.result
	return &result, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, result types.EvaluationResult, ttl time.Duration) error {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= sweepThreshold {
		for k, e := range c.entries {
			if !now.Before(e.expiry) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = memoryEntry{result: result, expiry: now.Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
