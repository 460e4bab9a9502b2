package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"julianmorley.ca/stockpilot/inventory-api/pkg/metrics"
)

const (
	DefaultCacheTTL        = 300 * time.Second
	DefaultCacheMaxEntries = 100
)

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// Cache holds serialized analysis payloads for a fixed TTL. It is the only
// state shared between analysis requests.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// CacheStats is reported by the admin endpoint.
type CacheStats struct {
	Entries          int     `json:"entries"`
	MaxEntries       int     `json:"max_entries"`
	TTLSeconds       float64 `json:"ttl_seconds"`
	OldestAgeSeconds float64 `json:"oldest_age_seconds"`
}

func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the stored bytes while the entry is younger than the TTL.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		metrics.AnalysisCacheEvictions.Inc()
		return nil, false
	}
	return entry.data, true
}

// Set stores data under key, dropping expired entries first and then the
// oldest ones while the cache is full.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictExpiredLocked(now)
	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = cacheEntry{data: data, storedAt: now}
}

func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictExpiredLocked(c.now())
}

// Clear drops every entry and returns how many there were.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		TTLSeconds: c.ttl.Seconds(),
	}
	now := c.now()
	for _, e := range c.entries {
		if age := now.Sub(e.storedAt).Seconds(); age > stats.OldestAgeSeconds {
			stats.OldestAgeSeconds = age
		}
	}
	return stats
}

func (c *Cache) evictExpiredLocked(now time.Time) int {
	evicted := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, key)
			evicted++
		}
	}
	metrics.AnalysisCacheEvictions.Add(float64(evicted))
	return evicted
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = key, e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		metrics.AnalysisCacheEvictions.Inc()
	}
}

// cacheKey hashes the operation name with its normalized parameters, so
// logically identical requests share one entry.
func cacheKey(operation string, params interface{}) (string, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache params for %s: %w", operation, err)
	}
	sum := sha256.Sum256(append([]byte(operation+"|"), encoded...))
	return operation + ":" + hex.EncodeToString(sum[:]), nil
}
