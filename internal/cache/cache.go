package cache

import (
	"sync"
	"time"
)

// ============================================================================
// CACHE SERVICE - IN-MEMORY CACHING WITH TTL
// ============================================================================
// Thread-safe cache with automatic expiration, used for the hot read paths
// of report generation (day-name dimension, per-route service ids, rendered
// reports). Edits to a dataset must invalidate its report entries via
// DeletePrefix.
//
// Usage:
//   cache := NewCache(5*time.Minute, 10*time.Minute)
//   cache.Set("services:3:R1", ids)
//   if v, found := cache.Get("services:3:R1"); found {
//       return v.([]string)
//   }

// Item is a cached value with its expiration timestamp.
type Item struct {
	Value      interface{}
	Expiration int64 // Unix nanoseconds, 0 means no expiry
}

// Cache is a thread-safe key-value store with TTL.
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
}

// NewCache creates a cache with a default TTL. cleanupInterval drives the
// periodic sweep of expired items.
func NewCache(defaultExpiration, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
	}

	go c.startCleanupTimer()

	return c
}

// Set stores a value with the default expiration.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL stores a value with a specific expiration duration.
func (c *Cache) SetWithTTL(key string, value interface{}, duration time.Duration) {
	var expiration int64

	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get retrieves a value. Returns (value, true) when present and not
// expired, (nil, false) otherwise.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}

	return item.Value, true
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with the given prefix and returns
// how many were removed. Used to invalidate a dataset's cached reports
// after an edit ("report:3:" drops every report for dataset 3).
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

// Count returns the number of items, expired ones included.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats are point-in-time cache statistics.
type Stats struct {
	TotalItems   int
	ExpiredItems int
	ValidItems   int
}

// GetStats returns current statistics.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalItems: len(c.items),
	}

	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}

	return stats
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop ends the background cleanup goroutine.
func (c *Cache) Stop() {
	c.stopCleanup <- true
}

// ============================================================================
// CACHE PRESETS
// ============================================================================

var (
	// DayNamesCache holds the d_date day-name map. The date dimension is
	// effectively static, so a long TTL is safe.
	DayNamesCache *Cache

	// ServiceIDsCache holds per dataset+route service id lists for the
	// report filter dropdowns.
	ServiceIDsCache *Cache

	// ReportCache holds rendered run-cut payloads, keyed by dataset plus
	// the full filter set. Short TTL, and edits invalidate by prefix.
	ReportCache *Cache
)

// InitCaches initializes the preset caches.
func InitCaches() {
	DayNamesCache = NewCache(30*time.Minute, 30*time.Minute)
	ServiceIDsCache = NewCache(5*time.Minute, 10*time.Minute)
	ReportCache = NewCache(2*time.Minute, 5*time.Minute)
}

// StopCaches stops all preset caches.
func StopCaches() {
	if DayNamesCache != nil {
		DayNamesCache.Stop()
	}
	if ServiceIDsCache != nil {
		ServiceIDsCache.Stop()
	}
	if ReportCache != nil {
		ReportCache.Stop()
	}
}

// ClearAllCaches clears all preset caches.
func ClearAllCaches() {
	if DayNamesCache != nil {
		DayNamesCache.Clear()
	}
	if ServiceIDsCache != nil {
		ServiceIDsCache.Clear()
	}
	if ReportCache != nil {
		ReportCache.Clear()
	}
}

// GetAllCacheStats returns statistics for all preset caches.
func GetAllCacheStats() map[string]Stats {
	stats := make(map[string]Stats)

	if DayNamesCache != nil {
		stats["day_names"] = DayNamesCache.GetStats()
	}
	if ServiceIDsCache != nil {
		stats["service_ids"] = ServiceIDsCache.GetStats()
	}
	if ReportCache != nil {
		stats["reports"] = ReportCache.GetStats()
	}

	return stats
}
