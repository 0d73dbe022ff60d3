package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded cache whose entries also expire after a TTL.
type LRU[T any] struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*list.Element
	order   *list.List // front is most recently used

	stats Stats
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

// Config sizes an LRU. Now defaults to time.Now.
type Config struct {
	MaxEntries int
	TTL        time.Duration
	Now        func() time.Time
}

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	Expired   int
}

func NewLRU[T any](cfg Config) *LRU[T] {
	if cfg.MaxEntries < 1 {
		cfg.MaxEntries = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LRU[T]{
		max:     cfg.MaxEntries,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if !c.now().Before(e.expires) {
		c.remove(elem)
		c.stats.Expired++
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.stats.Hits++
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if elem, ok := c.entries[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.entries[key] = c.order.PushFront(e)
	for c.order.Len() > c.max {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}
}

// Purge drops every entry. Stats are kept.
func (c *LRU[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.order.Init()
}

// CleanExpired removes expired entries and reports how many went.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*entry[T]).expires) {
			c.remove(elem)
			n++
		}
		elem = prev
	}
	c.stats.Expired += n
	return n
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
