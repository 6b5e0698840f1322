package cache

import "time"

// EventType tags a debug ring-buffer event.
type EventType string

const (
	EventHit   EventType = "hit"
	EventMiss  EventType = "miss"
	EventSet   EventType = "set"
	EventEvict EventType = "evict"
	EventClear EventType = "clear"
)

// Event is one cache operation kept for debugging.
type Event struct {
	Type   EventType   `json:"type"`
	Key    string      `json:"key,omitempty"`
	Reason EvictReason `json:"reason,omitempty"`
	At     time.Time   `json:"at"`
}

// metrics holds running counters; guarded by Cache.mu.
type metrics struct {
	hits      int64
	misses    int64
	sets      int64
	evictions int64
	loadCount int64
	loadTotal time.Duration
}

// MetricsSnapshot is a read-only view of the cache counters.
type MetricsSnapshot struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
	AvgLoadMs float64 `json:"avg_load_ms"`
}

// Metrics returns a snapshot of the running counters.
func (c *Cache) Metrics() MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := MetricsSnapshot{
		Hits:      c.metrics.hits,
		Misses:    c.metrics.misses,
		Sets:      c.metrics.sets,
		Evictions: c.metrics.evictions,
		Size:      len(c.entries),
	}
	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRate = float64(snap.Hits) / float64(total)
	}
	if c.metrics.loadCount > 0 {
		snap.AvgLoadMs = float64(c.metrics.loadTotal.Milliseconds()) / float64(c.metrics.loadCount)
	}
	return snap
}

// Events returns a copy of the debug ring buffer, oldest first.
func (c *Cache) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.snapshot()
}

// eventRing is a fixed-size ring of recent events; the oldest entry is
// overwritten once the buffer is full.
type eventRing struct {
	buf  []Event
	next int
	full bool
}

func newEventRing(size int) *eventRing {
	return &eventRing{buf: make([]Event, size)}
}

func (r *eventRing) push(ev Event) {
	r.buf[r.next] = ev
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *eventRing) snapshot() []Event {
	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
