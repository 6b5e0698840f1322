package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EvictReason explains why an entry was removed.
type EvictReason string

const (
	ReasonCapacity EvictReason = "capacity"
	ReasonTTL      EvictReason = "ttl"
	ReasonManual   EvictReason = "manual"
)

// LoaderFunc loads a value from the underlying source on a cache miss.
type LoaderFunc func(ctx context.Context) (interface{}, error)

// Config holds cache construction settings.
type Config struct {
	Capacity    int // max entries before LRU eviction; <=0 means unbounded
	EventBuffer int // debug ring buffer size; <=0 defaults to 1000
}

type entry struct {
	key         string
	value       interface{}
	insertedAt  time.Time
	ttl         time.Duration
	lastAccess  time.Time
	accessCount int64
	tags        map[string]struct{}
	elem        *list.Element // position in the LRU list
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.After(e.insertedAt.Add(e.ttl))
}

// call tracks an in-flight load so concurrent misses for the same key
// collapse into a single underlying load.
type call struct {
	done chan struct{}
	val  interface{}
	err  error
}

// Cache is an in-process read-through cache with per-entry TTL, tag-based
// invalidation and LRU eviction under an entry-count budget. It is never the
// system of record; correctness rests on mutations invalidating tags and on
// expired entries never being served.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lru      *list.List // front = most recently accessed
	capacity int

	inflight map[string]*call

	metrics metrics
	events  *eventRing

	logger *zap.Logger
}

// New creates a Cache. It is a long-lived component: construct once at
// startup and pass by handle, never as package-level state.
func New(cfg Config, logger *zap.Logger) *Cache {
	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = 1000
	}
	return &Cache{
		entries:  make(map[string]*entry),
		lru:      list.New(),
		capacity: cfg.Capacity,
		inflight: make(map[string]*call),
		events:   newEventRing(buf),
		logger:   logger,
	}
}

// Key builds the canonical cache key for an entity kind and id.
func Key(kind, id string) string {
	return kind + ":" + id
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.lookup(key)
	if e == nil {
		c.metrics.misses++
		c.events.push(Event{Type: EventMiss, Key: key, At: time.Now()})
		return nil, false
	}
	c.metrics.hits++
	c.events.push(Event{Type: EventHit, Key: key, At: time.Now()})
	return e.value, true
}

// GetOrLoad returns the cached value for key, loading it through load on a
// miss. Concurrent misses for the same key share one load. A caller whose
// context is cancelled while waiting gets ctx.Err(); the load result, if it
// arrives, is still cached for others. Load errors are returned to the
// caller and nothing is stored.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, tags []string, load LoaderFunc) (interface{}, error) {
	c.mu.Lock()
	if e := c.lookup(key); e != nil {
		c.metrics.hits++
		c.events.push(Event{Type: EventHit, Key: key, At: time.Now()})
		val := e.value
		c.mu.Unlock()
		return val, nil
	}
	c.metrics.misses++
	c.events.push(Event{Type: EventMiss, Key: key, At: time.Now()})

	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.val, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	start := time.Now()
	cl.val, cl.err = load(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	c.metrics.loadCount++
	c.metrics.loadTotal += time.Since(start)
	if cl.err == nil {
		c.store(key, cl.val, ttl, tags)
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.val, cl.err
}

// Set writes a value directly, used to seed the cache with a fresh value
// after a mutation instead of forcing a re-read.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl, tags)
}

// InvalidateTag removes every entry whose tag set contains tag and returns
// the number removed. Calling it again immediately is a no-op.
func (c *Cache) InvalidateTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, e := range c.entries {
		if _, ok := e.tags[tag]; ok {
			c.remove(e, ReasonManual)
			removed++
		}
	}
	return removed
}

// Invalidate removes a single entry by key.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e, ReasonManual)
	return true
}

// Clear drops every entry. Metrics counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.events.push(Event{Type: EventClear, At: time.Now()})
}

// SweepExpired removes entries past their TTL and returns the count. Run
// periodically by the scheduler so idle stale entries do not pin memory.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	removed := 0
	for _, e := range c.entries {
		if e.expired(now) {
			c.remove(e, ReasonTTL)
			removed++
		}
	}
	return removed
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns the live entry for key, removing it if expired. Caller
// holds c.mu.
func (c *Cache) lookup(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if e.expired(time.Now()) {
		c.remove(e, ReasonTTL)
		return nil
	}
	e.lastAccess = time.Now()
	e.accessCount++
	c.lru.MoveToFront(e.elem)
	return e
}

// store inserts or replaces an entry and evicts LRU entries past the
// capacity budget. Caller holds c.mu.
func (c *Cache) store(key string, value interface{}, ttl time.Duration, tags []string) {
	now := time.Now()
	if old, ok := c.entries[key]; ok {
		c.lru.Remove(old.elem)
	}
	e := &entry{
		key:        key,
		value:      value,
		insertedAt: now,
		ttl:        ttl,
		lastAccess: now,
		tags:       make(map[string]struct{}, len(tags)),
	}
	for _, t := range tags {
		e.tags[t] = struct{}{}
	}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.metrics.sets++
	c.events.push(Event{Type: EventSet, Key: key, At: now})

	if c.capacity > 0 {
		for len(c.entries) > c.capacity {
			back := c.lru.Back()
			if back == nil {
				break
			}
			c.remove(back.Value.(*entry), ReasonCapacity)
		}
	}
}

// remove deletes an entry and records the eviction. Caller holds c.mu.
func (c *Cache) remove(e *entry, reason EvictReason) {
	delete(c.entries, e.key)
	c.lru.Remove(e.elem)
	c.metrics.evictions++
	c.events.push(Event{Type: EventEvict, Key: e.key, Reason: reason, At: time.Now()})
}
