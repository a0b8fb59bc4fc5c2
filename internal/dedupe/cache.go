// Package dedupe tracks which spans have already been exported so repeated
// exporter invocations do not double-report the same work.
package dedupe

import "sync"

// DefaultMaxSize bounds the cache when the caller passes a non-positive size.
const DefaultMaxSize = 10_000

// Cache remembers (trace, span) pairs with FIFO eviction once full.
// All methods are safe for concurrent use. The zero value is not usable;
// construct with New.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]struct{}
	order   []string // insertion order, oldest first
}

// New creates a Cache holding at most maxSize pairs.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		maxSize: maxSize,
		seen:    make(map[string]struct{}, maxSize),
	}
}

// Add records the pair and reports whether it was seen for the first time;
// false means the span is a duplicate and should be skipped. An empty
// traceID disables dedup for that span: Add returns true and records
// nothing. Check and insert run under one lock so two exporters cannot
// both claim the same span.
func (c *Cache) Add(traceID, spanID string) bool {
	if traceID == "" {
		return true
	}
	key := traceID + ":" + spanID

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.seen[key]; dup {
		return false
	}
	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	return true
}

// Len returns the number of pairs currently tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Reset drops every tracked pair.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = make(map[string]struct{}, c.maxSize)
	c.order = nil
}
