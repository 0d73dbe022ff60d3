// Package cache holds computed views between state changes.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is what Loader and Janitor need from a store.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Purge()
	Len() int
}

// Loader fills a Cache on miss. Concurrent misses on one key share a single
// call to load.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group
}

func NewLoader[T any](c Cache[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// Load returns the cached value for key, or calls load and caches its
// result. Errors are not cached. hit reports whether load was skipped.
func (l *Loader[T]) Load(key string, load func() (T, error)) (value T, hit bool, err error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		l.cache.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Purge drops every cached value.
func (l *Loader[T]) Purge() { l.cache.Purge() }

// Expirer is a cache that can drop its expired entries.
type Expirer interface {
	CleanExpired() int
}

// Janitor periodically cleans the caches registered with it.
type Janitor struct {
	mu     sync.Mutex
	caches []Expirer
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewJanitor(logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{logger: logger}
}

func (j *Janitor) Register(c Expirer) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Start runs a cleanup every interval until Stop. Calling Start twice is a
// no-op.
func (j *Janitor) Start(interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})
	go j.run(ctx, interval)
}

func (j *Janitor) run(ctx context.Context, interval time.Duration) {
	defer close(j.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Cleaned expired cache entries", "count", n)
			}
		}
	}
}

// Sweep cleans every registered cache once and returns the entries removed.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	caches := append([]Expirer(nil), j.caches...)
	j.mu.Unlock()

	n := 0
	for _, c := range caches {
		n += c.CleanExpired()
	}
	return n
}

// Stop ends the cleanup goroutine and waits for it. Safe to call more than
// once or without Start.
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel = nil
	j.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
