package ttlcache

import (
	"testing"
	"time"
)

func TestLookupMiss(t *testing.T) {
	c := New[int](time.Minute, 10)
	if _, ok := c.Lookup("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestInsertAndLookup(t *testing.T) {
	c := New[string](time.Minute, 10)
	c.Insert("a", "apple")
	v, ok := c.Lookup("a")
	if !ok || v != "apple" {
		t.Fatalf("Lookup = %q, %v; want apple, true", v, ok)
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	c := NewWithClock[int](time.Second, 10, clock)

	c.Insert("k", 1)
	if _, ok := c.Lookup("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Lookup("k"); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := New[int](time.Minute, 2)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3) // evicts "a"

	if _, ok := c.Lookup("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Lookup("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Lookup("c"); !ok {
		t.Error("expected c to remain")
	}
}

func TestReinsertResetsOrder(t *testing.T) {
	c := New[int](time.Minute, 2)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("a", 10) // a is now newest
	c.Insert("c", 3)  // should evict b, not a

	if _, ok := c.Lookup("b"); ok {
		t.Error("expected b to be evicted")
	}
	if v, ok := c.Lookup("a"); !ok || v != 10 {
		t.Errorf("expected a=10 to remain, got %v %v", v, ok)
	}
}

func TestDelete(t *testing.T) {
	c := New[int](time.Minute, 10)
	c.Insert("a", 1)
	c.Delete("a")
	if _, ok := c.Lookup("a"); ok {
		t.Error("expected miss after delete")
	}
}

func TestClear(t *testing.T) {
	c := New[int](time.Minute, 10)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestDisabledWhenZeroMaxAge(t *testing.T) {
	c := New[int](0, 10)
	c.Insert("a", 1)
	if _, ok := c.Lookup("a"); ok {
		t.Error("expected disabled cache to always miss")
	}
	if c.Len() != 0 {
		t.Error("expected disabled cache inserts to be no-ops")
	}
}

func TestDisabledWhenZeroMaxEntries(t *testing.T) {
	c := New[int](time.Minute, 0)
	c.Insert("a", 1)
	if _, ok := c.Lookup("a"); ok {
		t.Error("expected disabled cache to always miss")
	}
}

func TestEachOrdering(t *testing.T) {
	c := New[int](time.Minute, 10)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)

	var keys []string
	c.Each(func(key string, value int, insertedAt time.Time) {
		keys = append(keys, key)
	})
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}
