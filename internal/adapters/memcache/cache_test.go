package memcache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "a", []int{1, 2}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got []int
	ok, err := c.Get(ctx, "a", &got)
	if !ok || err != nil || len(got) != 2 {
		t.Fatalf("ok=%v err=%v got=%v", ok, err, got)
	}

	// mutating the read value must not leak into the cache
	got[0] = 99
	var again []int
	_, _ = c.Get(ctx, "a", &again)
	if again[0] != 1 {
		t.Fatalf("cache shared memory with reader: %v", again)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, _ := New(4)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "a", "v", 5)
	now = now.Add(6 * time.Second)

	var s string
	if ok, _ := c.Get(ctx, "a", &s); ok {
		t.Fatalf("expected expired entry")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed, len=%d", c.Len())
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := New(2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", 1, 0)
	_ = c.Set(ctx, "b", 2, 0)
	var n int
	_, _ = c.Get(ctx, "a", &n) // a is now most recent
	_ = c.Set(ctx, "c", 3, 0)

	if ok, _ := c.Get(ctx, "b", &n); ok {
		t.Fatalf("b should have been evicted")
	}
	if ok, _ := c.Get(ctx, "a", &n); !ok || n != 1 {
		t.Fatalf("a should survive, ok=%v n=%d", ok, n)
	}
}

func TestCache_Del(t *testing.T) {
	c, _ := New(2)
	ctx := context.Background()
	_ = c.Set(ctx, "a", 1, 0)
	_ = c.Del(ctx, "a")
	var n int
	if ok, _ := c.Get(ctx, "a", &n); ok {
		t.Fatalf("expected miss after del")
	}
}
