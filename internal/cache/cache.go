// ABOUTME: Thread-safe TTL cache with a size bound and oldest-first eviction
// ABOUTME: The dev server keeps recent corpus search results here

package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	stored  time.Time
	element *list.Element
}

// Cache maps string keys to values that expire after a TTL. When full, the
// least recently stored key is evicted. A background goroutine drops
// expired entries until Close is called.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // keys, oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache holding up to maxSize values for ttl each.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: max(maxSize, 1),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.cleanup(cleanupInterval(ttl))
	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	return min(max(ttl, time.Second), time.Minute)
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.stored) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous value.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.stored = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry[V]{
		value:   value,
		stored:  now,
		element: c.order.PushBack(key),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked removes the oldest entry. Must be called with mu held.
func (c *Cache[V]) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

func (c *Cache[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired drops every expired entry.
func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.stored) >= c.ttl {
			c.order.Remove(e.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
