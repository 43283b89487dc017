package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func TestValueLoadsOnceWithinTTL(t *testing.T) {
	clock := newClock()
	var loads int32
	v := NewValue("categories", time.Hour, clock.Now, func(ctx context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		return "set", nil
	})

	for i := 0; i < 2; i++ {
		got, err := v.Get(context.Background())
		if err != nil || got != "set" {
			t.Fatalf("Get() = %q, %v", got, err)
		}
	}
	if loads != 1 {
		t.Fatalf("expected 1 load within TTL, got %d", loads)
	}

	clock.Advance(59 * time.Minute)
	_, _ = v.Get(context.Background())
	if loads != 1 {
		t.Fatalf("expected cache hit before expiry, got %d loads", loads)
	}

	clock.Advance(time.Minute)
	_, _ = v.Get(context.Background())
	if loads != 2 {
		t.Fatalf("expected reload at TTL, got %d loads", loads)
	}
}

func TestValueLoadErrorKeepsState(t *testing.T) {
	clock := newClock()
	fail := false
	v := NewValue("k", time.Minute, clock.Now, func(ctx context.Context) (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return 7, nil
	})
	if got, _ := v.Get(context.Background()); got != 7 {
		t.Fatalf("got %d", got)
	}
	clock.Advance(2 * time.Minute)
	fail = true
	if _, err := v.Get(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if _, ok := v.Peek(); ok {
		t.Fatal("stale value must not be reported fresh")
	}
}

func TestValueLoadIgnoresCallerCancellation(t *testing.T) {
	v := NewValue("k", time.Hour, newClock().Now, func(ctx context.Context) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 5, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := v.Get(ctx)
	if err != nil || got != 5 {
		t.Fatalf("Get() with cancelled caller = %d, %v", got, err)
	}
	if got, ok := v.Peek(); !ok || got != 5 {
		t.Fatalf("Peek() = %d, %v, want the shared load cached", got, ok)
	}
}

func TestValueConcurrentRefreshCollapses(t *testing.T) {
	clock := newClock()
	var loads int32
	release := make(chan struct{})
	v := NewValue("k", time.Hour, clock.Now, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return 1, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = v.Get(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Fatalf("expected a single load, got %d", n)
	}
}

func TestLRUCacheExpiryAndEviction(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](2, time.Minute, clock.Now)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3) // evicts b, the least recently used
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	clock.Advance(2 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 expired entries, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}
