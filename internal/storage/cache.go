// cache.go - In-memory TTL cache for marine API responses

package storage

import (
	"sync"
	"time"

	"github.com/tidewatch/poseidon/internal/forecast"
)

// MarineCache holds recent marine API samples keyed by coordinates and
// date, so the warm-up job and live requests share fetches.
type MarineCache struct {
	mu      sync.RWMutex
	entries map[string]marineEntry
	ttl     time.Duration
}

type marineEntry struct {
	sample   forecast.ForecastSample
	loadedAt time.Time
}

// NewMarineCache creates a cache whose entries expire after ttl.
func NewMarineCache(ttl time.Duration) *MarineCache {
	return &MarineCache{
		entries: make(map[string]marineEntry),
		ttl:     ttl,
	}
}

// Get returns the cached sample for a key when it is still fresh.
func (c *MarineCache) Get(key string) (*forecast.ForecastSample, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(entry.loadedAt) >= c.ttl {
		return nil, false
	}
	sample := entry.sample
	return &sample, true
}

// Put stores a sample under a key, replacing any stale entry.
func (c *MarineCache) Put(key string, sample *forecast.ForecastSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = marineEntry{sample: *sample, loadedAt: time.Now()}
}

// Invalidate removes one key, and Clear drops everything.
func (c *MarineCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MarineCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]marineEntry)
}
