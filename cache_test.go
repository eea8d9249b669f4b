package plaincache

import (
	"runtime"
	"sync"
	"testing"
)

func TestCache_InsertThenGet(t *testing.T) {
	c := New[string, string](1000)

	c.Insert("key1", "value1")
	v, ok := c.Get("key1")
	if !ok || v != "value1" {
		t.Fatalf("Get(key1) = %q, %v; want value1, true", v, ok)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := New[string, int](100)

	if _, ok := c.Get("absent"); ok {
		t.Fatal("Get on a never-inserted key should miss")
	}
}

func TestCache_InsertOverwriteReturnsPriorValue(t *testing.T) {
	c := New[string, string](100)

	c.Insert("key1", "value1")
	old, had := c.Insert("key1", "new_value")
	if !had || old != "value1" {
		t.Fatalf("Insert overwrite = %q, %v; want value1, true", old, had)
	}

	v, ok := c.Get("key1")
	if !ok || v != "new_value" {
		t.Fatalf("Get(key1) after overwrite = %q, %v; want new_value, true", v, ok)
	}
}

func TestCache_ZeroCapacityAlwaysMisses(t *testing.T) {
	c := New[string, int](0)

	c.Insert("key", 1)
	if _, ok := c.Get("key"); ok {
		t.Error("a zero-capacity cache must never retain anything")
	}
	if n := c.Len(); n != 0 {
		t.Errorf("Len() = %d; want 0", n)
	}
}

func TestCache_GetOrInsert_ComputesOnceOnMiss(t *testing.T) {
	c := New[string, int](100)

	calls := 0
	compute := func() int {
		calls++
		return 42
	}

	v := c.GetOrInsert("key", compute)
	if v != 42 {
		t.Fatalf("GetOrInsert = %d; want 42", v)
	}
	v = c.GetOrInsert("key", compute)
	if v != 42 {
		t.Fatalf("second GetOrInsert = %d; want 42", v)
	}
	if calls != 1 {
		t.Errorf("compute called %d times; want 1", calls)
	}
}

func TestCache_Len(t *testing.T) {
	// Capacity scales with GOMAXPROCS so that each shard gets capacity 30 and
	// a small queue of 3 slots: even if all three keys land on the same
	// shard, none of them is evicted before Len is checked.
	c := New[string, int](runtime.GOMAXPROCS(0) * 4 * 30)

	if c.Len() != 0 {
		t.Errorf("initial Len() = %d; want 0", c.Len())
	}

	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)

	if c.Len() != 3 {
		t.Errorf("Len() = %d; want 3", c.Len())
	}
}

func TestCache_EvictsUnderTinyCapacity(t *testing.T) {
	// A tiny-capacity cache (four shards of capacity 1 here, each with a
	// one-slot small queue) forces eviction quickly: once more
	// distinct cold keys have been inserted than the cache can hold, some
	// earlier key must no longer be retrievable.
	c := New[int, int](4)

	for i := range 100 {
		c.Insert(i, i)
	}

	if n := c.Len(); n > 4 {
		t.Errorf("Len() = %d; should never exceed capacity 4", n)
	}
	if _, ok := c.Get(0); ok {
		t.Error("key 0 should have been evicted long before key 99 was inserted")
	}
}

func TestCache_CapacityTwoEvictsOldestColdKey(t *testing.T) {
	// Capacity 2 always yields two shards routed through a single one (the
	// shard modulo is max(n-1, 1)), each holding one small and one main slot.
	// Four cold inserts must push k1 out through the small queue.
	c := New[string, int](2)

	c.Insert("k1", 1)
	c.Insert("k2", 2)
	c.Insert("k3", 3)
	c.Insert("k4", 4)

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted by the three inserts after it")
	}
}

func TestCache_ConcurrentDistinctInsertsBothRetained(t *testing.T) {
	// Capacity scales with GOMAXPROCS so that even if both keys land on the
	// same shard, its small queue has room for the two of them.
	c := New[string, string](runtime.GOMAXPROCS(0) * 4 * 20)

	var wg sync.WaitGroup
	wg.Go(func() { c.Insert("left", "L") })
	wg.Go(func() { c.Insert("right", "R") })
	wg.Wait()

	if v, ok := c.Get("left"); !ok || v != "L" {
		t.Errorf("Get(left) = %q, %v; want L, true", v, ok)
	}
	if v, ok := c.Get("right"); !ok || v != "R" {
		t.Errorf("Get(right) = %q, %v; want R, true", v, ok)
	}
}

func TestCache_StatsCountsHitsMissesAndResets(t *testing.T) {
	c := New[string, int](100)

	c.Insert("a", 1)
	c.Get("a")       // hit
	c.Get("a")       // hit
	c.Get("missing") // miss

	s := c.Stats()
	if s.Hits != 2 {
		t.Errorf("Hits = %d; want 2", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("Misses = %d; want 1", s.Misses)
	}

	// A second, immediate call must report all zeros: stats are a snapshot
	// since the previous call, not a running total.
	s2 := c.Stats()
	if s2.Hits != 0 || s2.Misses != 0 || s2.Evictions != 0 {
		t.Errorf("second Stats() = %+v; want all zero counters", s2)
	}
}

func TestCache_WithHasherOptionIsUsed(t *testing.T) {
	calls := 0
	hasher := func(k string) uint64 {
		calls++
		return uint64(len(k))
	}

	c := New[string, int](100, WithHasher(hasher))
	c.Insert("key", 1)
	c.Get("key")

	if calls == 0 {
		t.Error("custom hasher supplied via WithHasher was never called")
	}
}

func TestCache_ConcurrentInsertAndGet(t *testing.T) {
	c := New[int, int](1000)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			for j := range 100 {
				c.Insert(i*100+j, j)
			}
		})
	}
	for range 10 {
		wg.Go(func() {
			for j := range 100 {
				c.Get(j)
			}
		})
	}
	wg.Wait()

	if n := c.Len(); n > 1000 {
		t.Errorf("Len() = %d; should never exceed capacity 1000", n)
	}
}
