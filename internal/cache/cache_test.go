package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCache_GetOrFetch_CacheHitAndError(t *testing.T) {
	c := New[uint64](200 * time.Millisecond)
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) (uint64, error) {
		calls++
		return 42, nil
	}
	v, src, err := c.GetOrFetch(ctx, "k1", fetch)
	if err != nil || v != 42 || src != SourceCluster { t.Fatalf("first: v=%v src=%s err=%v", v, src, err) }
	v2, src2, err := c.GetOrFetch(ctx, "k1", fetch)
	if err != nil || v2 != 42 || src2 != SourceCache { t.Fatalf("second: v=%v src=%s err=%v", v2, src2, err) }
	if calls != 1 { t.Fatalf("fetch calls=%d", calls) }

	badFetch := func(context.Context) (uint64, error) { return 0, errors.New("fetch-fail") }
	_, src3, err := c.GetOrFetch(ctx, "k2", badFetch)
	if err == nil || src3 != "" { t.Fatalf("expected error, src='%s' err=%v", src3, err) }
	if c.Len() != 1 { t.Fatalf("failed fetch must not be cached, len=%d", c.Len()) }
}

func TestCache_Expiry(t *testing.T) {
	c := New[string](20 * time.Millisecond)
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) (string, error) { calls++; return "v", nil }
	_, _, _ = c.GetOrFetch(ctx, "k", fetch)
	time.Sleep(40 * time.Millisecond)
	_, src, _ := c.GetOrFetch(ctx, "k", fetch)
	if src != SourceCluster || calls != 2 { t.Fatalf("src=%s calls=%d", src, calls) }
}

func TestCache_Invalidate(t *testing.T) {
	c := New[int](time.Minute)
	ctx := context.Background()
	n := 0
	fetch := func(context.Context) (int, error) { n++; return n, nil }
	v, _, _ := c.GetOrFetch(ctx, "k", fetch)
	if v != 1 { t.Fatalf("v=%d", v) }
	c.Invalidate("k")
	v, src, _ := c.GetOrFetch(ctx, "k", fetch)
	if v != 2 || src != SourceCluster { t.Fatalf("after invalidate v=%d src=%s", v, src) }
}

func TestCache_SingleflightCoalesces(t *testing.T) {
	c := New[uint64](10 * time.Second)
	var mu sync.Mutex
	calls := 0
	fetch := func(ctx context.Context) (uint64, error) {
		mu.Lock(); calls++; mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return 1_234, nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrFetch(context.Background(), "k", fetch); err != nil { t.Errorf("err: %v", err) }
		}()
	}
	wg.Wait()
	if calls != 1 { t.Fatalf("fetch calls=%d (want 1)", calls) }
}
