package cache

import (
	"testing"
	"time"
)

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *time.Time) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[T](size, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 becomes least recently used
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheTTLExpiration(t *testing.T) {
	c, now := newTestCache[string](10, time.Minute)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist immediately")
	}

	*now = now.Add(2 * time.Minute)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be removed on read")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, now := newTestCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	*now = now.Add(30 * time.Second)
	c.Set("c", 3)
	*now = now.Add(45 * time.Second)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should survive cleanup")
	}
}

func TestLRUCacheStats(t *testing.T) {
	c, _ := newTestCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Delete("a")

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Size != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestManagerCleanAll(t *testing.T) {
	a, now := newTestCache[int](5, time.Second)
	b := NewLRUCache[string](5, time.Hour)
	a.Set("x", 1)
	b.Set("y", "kept")
	*now = now.Add(time.Minute)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	if n := m.CleanAll(); n != 1 {
		t.Errorf("CleanAll() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running loop")
	}
}
