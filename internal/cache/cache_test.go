package cache

import (
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	cache := NewCache(5*time.Minute, 10*time.Minute)
	defer cache.Stop()

	cache.Set("key1", "value1")

	value, found := cache.Get("key1")
	if !found {
		t.Error("Expected to find key1")
	}
	if value != "value1" {
		t.Errorf("Expected 'value1', got %v", value)
	}

	_, found = cache.Get("nonexistent")
	if found {
		t.Error("Expected not to find nonexistent key")
	}
}

func TestCacheExpiration(t *testing.T) {
	cache := NewCache(5*time.Minute, 10*time.Minute)
	defer cache.Stop()

	cache.SetWithTTL("expiring", "value", 100*time.Millisecond)

	_, found := cache.Get("expiring")
	if !found {
		t.Error("Expected to find item before expiration")
	}

	time.Sleep(150 * time.Millisecond)

	_, found = cache.Get("expiring")
	if found {
		t.Error("Expected item to be expired")
	}
}

func TestCacheDelete(t *testing.T) {
	cache := NewCache(5*time.Minute, 10*time.Minute)
	defer cache.Stop()

	cache.Set("key1", "value1")
	cache.Delete("key1")

	_, found := cache.Get("key1")
	if found {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	cache := NewCache(5*time.Minute, 10*time.Minute)
	defer cache.Stop()

	cache.Set("report:1:R10", "a")
	cache.Set("report:1:R20", "b")
	cache.Set("report:2:R10", "c")
	cache.Set("services:1:R10", "d")

	removed := cache.DeletePrefix("report:1:")
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	if _, found := cache.Get("report:2:R10"); !found {
		t.Error("Expected report:2:R10 to survive")
	}
	if _, found := cache.Get("services:1:R10"); !found {
		t.Error("Expected services:1:R10 to survive")
	}
	if _, found := cache.Get("report:1:R10"); found {
		t.Error("Expected report:1:R10 to be removed")
	}
}

func TestCacheClearAndCount(t *testing.T) {
	cache := NewCache(5*time.Minute, 10*time.Minute)
	defer cache.Stop()

	cache.Set("a", 1)
	cache.Set("b", 2)
	if cache.Count() != 2 {
		t.Errorf("Expected count 2, got %d", cache.Count())
	}

	cache.Clear()
	if cache.Count() != 0 {
		t.Errorf("Expected count 0 after clear, got %d", cache.Count())
	}
}

func TestCacheStats(t *testing.T) {
	cache := NewCache(5*time.Minute, 10*time.Minute)
	defer cache.Stop()

	cache.Set("valid", 1)
	cache.SetWithTTL("expired", 2, 1*time.Nanosecond)
	time.Sleep(10 * time.Millisecond)

	stats := cache.GetStats()
	if stats.TotalItems != 2 {
		t.Errorf("Expected 2 total items, got %d", stats.TotalItems)
	}
	if stats.ValidItems != 1 {
		t.Errorf("Expected 1 valid item, got %d", stats.ValidItems)
	}
	if stats.ExpiredItems != 1 {
		t.Errorf("Expected 1 expired item, got %d", stats.ExpiredItems)
	}
}
