package util

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T, capacity int, ttl time.Duration) *LRUCache[string, string] {
	t.Helper()
	c, err := NewWithConfig[string, string](CacheConfig{Capacity: capacity, DefaultTTL: ttl})
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	return c
}

func TestPutGet(t *testing.T) {
	c := newTestCache(t, 4, 0)

	c.Put("a", "1", 0)
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get on unknown key should miss")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := newTestCache(t, 2, 0)

	c.Put("a", "1", 0)
	c.Put("b", "2", 0)
	c.Get("a") // refresh a; b is now the oldest
	c.Put("c", "3", 0)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestEntryTTLExpiry(t *testing.T) {
	c := newTestCache(t, 4, 0)

	c.Put("short", "x", 20*time.Millisecond)
	c.Put("long", "y", time.Minute)

	if _, ok := c.Get("short"); !ok {
		t.Fatal("entry should be alive before its TTL elapses")
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry should miss")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("unexpired entry should still hit")
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	c := newTestCache(t, 4, 20*time.Millisecond)

	c.Put("a", "1", 0) // zero TTL falls back to the default
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("entry should expire via the default TTL")
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache(t, 4, 0)

	c.Put("a", "1", 0)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry should miss")
	}
	// Deleting an absent key is a no-op.
	c.Delete("missing")
}

func TestInvalidCapacity(t *testing.T) {
	if _, err := NewWithConfig[string, int](CacheConfig{Capacity: 0}); err == nil {
		t.Error("expected error for non-positive capacity")
	}
}
