package cache

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Second).WithClock(clk.now)
	c.Set("config", "v1")
	c.Set("transactions", "v2")

	clk.t = clk.t.Add(2 * time.Second)
	if _, ok := c.Get("config"); ok {
		t.Fatal("config should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := NewLRUCache[int](4, 0).WithClock(clk.now)
	c.Set("k", 7)
	clk.t = clk.t.Add(24 * time.Hour)
	if v, ok := c.Get("k"); !ok || v != 7 {
		t.Fatalf("k = %v, %v", v, ok)
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be gone")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("cache unusable after purge")
	}
}

func TestManagerSweep(t *testing.T) {
	clk := &clock{t: time.Now()}
	a := NewLRUCache[int](4, time.Second).WithClock(clk.now)
	b := NewLRUCache[int](4, time.Second).WithClock(clk.now)
	a.Set("x", 1)
	b.Set("y", 2)
	b.Set("z", 3)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)
	clk.t = clk.t.Add(time.Minute)

	if n := m.Sweep(); n != 3 {
		t.Fatalf("Sweep = %d, want 3", n)
	}
}
