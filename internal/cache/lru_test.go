package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("empty cache must miss")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("got %d %v", v, ok)
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string](10, 10*time.Millisecond)
	c.Set("a", "x")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry must miss")
	}
	// Expired data stays reachable as a stale fallback.
	if v, ok := c.GetStale("a"); !ok || v != "x" {
		t.Fatalf("stale fallback lost: %q %v", v, ok)
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d", n)
	}
	if _, ok := c.GetStale("a"); ok {
		t.Fatalf("cleanup must drop stale entries")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("oldest entry should be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("size %d", c.Size())
	}

	// A read refreshes recency.
	c.Get("b")
	c.Set("d", 4)
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("recently used entry evicted")
	}
}

func TestLRUInvalidate(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("transactions:1", 1)
	c.Set("transactions:2", 2)
	c.Set("accounts", 3)

	if n := c.InvalidatePrefix("transactions:"); n != 2 {
		t.Fatalf("invalidated %d", n)
	}
	if _, ok := c.Get("transactions:1"); ok {
		t.Fatalf("invalidated entry must miss")
	}
	if _, ok := c.Get("accounts"); !ok {
		t.Fatalf("unrelated entry must survive")
	}
	if v, ok := c.GetStale("transactions:2"); !ok || v != 2 {
		t.Fatalf("invalidated data must remain for fallback")
	}

	c.Invalidate("accounts")
	if _, ok := c.Get("accounts"); ok {
		t.Fatalf("single-key invalidate must miss")
	}
}

func TestManagerCleanup(t *testing.T) {
	c := NewLRU[int](10, time.Millisecond)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	c.Set("a", 1)
	deadline := time.After(time.Second)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatalf("cleanup never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
