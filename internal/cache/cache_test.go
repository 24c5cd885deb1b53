package cache

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](4)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache returned ok")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v; want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](3)
	for i := range 3 {
		c.Set(i, i)
	}
	c.Get(0) // 1 is now the oldest
	c.Set(3, 3)

	if _, ok := c.Get(1); ok {
		t.Error("key 1 should have been evicted")
	}
	for _, k := range []int{0, 2, 3} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("key %d missing", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 3 {
		t.Errorf("Stats() = %+v, want 1 eviction and 3 entries", s)
	}
}

func TestCacheUnlimited(t *testing.T) {
	c := New[int, int](0)
	for i := range 1000 {
		c.Set(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", c.Len())
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[string, int](8)
	c.Set("x", 1)
	c.Set("y", 2)

	if !c.Delete("x") {
		t.Error("Delete(x) = false")
	}
	if c.Delete("x") {
		t.Error("second Delete(x) = true")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	c.Set("z", 3)
	if v, _ := c.Get("z"); v != 3 {
		t.Errorf("Get(z) = %d after Clear, want 3", v)
	}
}

func TestCacheGetOrCreateOnce(t *testing.T) {
	c := New[string, int](16)
	var calls atomic.Int32

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.GetOrCreate("k", func() int {
				calls.Add(1)
				return 42
			})
			if v != 42 {
				t.Errorf("GetOrCreate = %d, want 42", v)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("create called %d times, want 1", calls.Load())
	}
	s := c.Stats()
	if s.Misses != 1 || s.Hits != 31 {
		t.Errorf("Stats() = %+v, want 1 miss and 31 hits", s)
	}
}

func BenchmarkCacheGetOrCreate(b *testing.B) {
	c := New[string, int](64)
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCreate(keys[i%len(keys)], func() int { return i })
	}
}
