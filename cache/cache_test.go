package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	return New(Config{Capacity: capacity, EventBuffer: 16}, zap.NewNop())
}

func TestGetSet(t *testing.T) {
	c := newCache(t, 0)
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestGet_Missing(t *testing.T) {
	c := newCache(t, 0)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c := newCache(t, 0)
	c.Set("k", "v", 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestZeroTTL_NeverExpires(t *testing.T) {
	c := newCache(t, 0)
	c.Set("k", "v", 0)
	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestGetOrLoad_LoadsOnMiss(t *testing.T) {
	c := newCache(t, 0)
	var loads int32

	v, err := c.GetOrLoad(context.Background(), "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&loads, 1)
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// Second call is a hit, no load.
	v, err = c.GetOrLoad(context.Background(), "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&loads, 1)
			return 0, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestGetOrLoad_ExpiryTriggersReload(t *testing.T) {
	c := newCache(t, 0)
	var loads int32
	load := func(ctx context.Context) (interface{}, error) {
		return atomic.AddInt32(&loads, 1), nil
	}

	v, err := c.GetOrLoad(context.Background(), "k", 10*time.Millisecond, nil, load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	time.Sleep(20 * time.Millisecond)
	v, err = c.GetOrLoad(context.Background(), "k", 10*time.Millisecond, nil, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c := newCache(t, 0)
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	// Next call loads again and can succeed.
	v, err := c.GetOrLoad(context.Background(), "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGetOrLoad_SingleFlight(t *testing.T) {
	c := newCache(t, 0)
	var loads int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", time.Minute, nil,
				func(ctx context.Context) (interface{}, error) {
					atomic.AddInt32(&loads, 1)
					<-release
					return "shared", nil
				})
			assert.NoError(t, err)
			assert.Equal(t, "shared", v)
		}()
	}
	// Let the goroutines pile up on the in-flight call before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "concurrent misses must share one load")
}

func TestGetOrLoad_WaiterCancellation(t *testing.T) {
	c := newCache(t, 0)
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrLoad(context.Background(), "k", time.Minute, nil,
			func(ctx context.Context) (interface{}, error) {
				<-release
				return "late", nil
			})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetOrLoad(ctx, "k", time.Minute, nil,
		func(ctx context.Context) (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, context.Canceled)

	// The leader's result is still stored for everyone else.
	close(release)
	require.Eventually(t, func() bool {
		v, ok := c.Get("k")
		return ok && v == "late"
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidateTag(t *testing.T) {
	c := newCache(t, 0)
	c.Set("a", 1, time.Minute, "user:1")
	c.Set("b", 2, time.Minute, "user:1", "user:2")
	c.Set("c", 3, time.Minute, "user:2")

	removed := c.InvalidateTag("user:1")
	assert.Equal(t, 2, removed)
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	// Idempotent: nothing left carrying the tag.
	assert.Equal(t, 0, c.InvalidateTag("user:1"))
}

func TestInvalidate_SingleKey(t *testing.T) {
	c := newCache(t, 0)
	c.Set("k", "v", time.Minute)
	assert.True(t, c.Invalidate("k"))
	assert.False(t, c.Invalidate("k"))
}

func TestCapacityEviction_LRU(t *testing.T) {
	c := newCache(t, 3)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Set("c", 3, time.Minute)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4, time.Minute)
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c := newCache(t, 0)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestSweepExpired(t *testing.T) {
	c := newCache(t, 0)
	c.Set("short", 1, 5*time.Millisecond)
	c.Set("long", 2, time.Minute)

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, 1, c.SweepExpired())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.SweepExpired())
}

func TestMetrics_Counters(t *testing.T) {
	c := newCache(t, 0)
	c.Set("k", "v", time.Minute)
	c.Get("k")     // hit
	c.Get("other") // miss
	c.Invalidate("k")

	m := c.Metrics()
	assert.Equal(t, int64(1), m.Hits)
	assert.Equal(t, int64(1), m.Misses)
	assert.Equal(t, int64(1), m.Sets)
	assert.Equal(t, int64(1), m.Evictions)
	assert.Equal(t, 0, m.Size)
	assert.InDelta(t, 0.5, m.HitRate, 0.001)
}

func TestEvents_RingOverwritesOldest(t *testing.T) {
	c := New(Config{EventBuffer: 4}, zap.NewNop())
	for i := 0; i < 6; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Minute)
	}

	events := c.Events()
	require.Len(t, events, 4)
	// Oldest first, and the first two sets fell off.
	assert.Equal(t, "k2", events[0].Key)
	assert.Equal(t, "k5", events[3].Key)
	for _, ev := range events {
		assert.Equal(t, EventSet, ev.Type)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "profile:42", Key("profile", "42"))
}
