package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces a fresh value for a Value cell.
type Loader[T any] func(ctx context.Context) (T, error)

// Value is a single cached value with a key, a load timestamp and a TTL.
// Concurrent refreshes of a stale value share one load.
type Value[T any] struct {
	key   string
	ttl   time.Duration
	now   Clock
	load  Loader[T]
	group singleflight.Group

	mu       sync.RWMutex
	value    T
	loadedAt time.Time
	valid    bool
}

func NewValue[T any](key string, ttl time.Duration, clock Clock, load Loader[T]) *Value[T] {
	if clock == nil {
		clock = time.Now
	}
	return &Value[T]{key: key, ttl: ttl, now: clock, load: load}
}

// Get returns the cached value, loading it when absent or older than the TTL.
// A failed load leaves the previous state untouched and returns the error.
// The load is shared by concurrent callers, so it ignores the cancellation of
// whichever caller started it.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	if val, ok := v.Peek(); ok {
		return val, nil
	}
	res, err, _ := v.group.Do(v.key, func() (any, error) {
		if val, ok := v.Peek(); ok {
			return val, nil
		}
		val, err := v.load(context.WithoutCancel(ctx))
		if err != nil {
			return val, err
		}
		v.mu.Lock()
		v.value, v.loadedAt, v.valid = val, v.now(), true
		v.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Peek returns the value only if it is present and fresh.
func (v *Value[T]) Peek() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.valid || v.now().Sub(v.loadedAt) >= v.ttl {
		var zero T
		return zero, false
	}
	return v.value, true
}

// Invalidate forces the next Get to load.
func (v *Value[T]) Invalidate() {
	v.mu.Lock()
	v.valid = false
	v.mu.Unlock()
}
