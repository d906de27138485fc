// Package cache implements stale-while-revalidate caching over a durable
// key-value store. Each resource key is read and refreshed through an Entry;
// observers subscribe per key and receive every value written to it.
package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"notionat/internal/store"
)

var (
	// ErrEmptyResult is returned by Refresh when the fetch succeeds with nothing.
	// The stored entry is left untouched.
	ErrEmptyResult = errors.New("fetch returned an empty result")

	// ErrSuperseded is returned by Refresh when a newer refresh of the same key
	// was started while this one was in flight. Only with the stale-fetch guard on.
	ErrSuperseded = errors.New("fetch superseded by a newer refresh")
)

// Cache owns the persisted representation of every cached resource.
type Cache struct {
	store store.Store
	clock func() time.Time
	guard bool

	mu          sync.Mutex
	subscribers map[string][]subscriber
	generations map[string]uint64
}

type subscriber struct {
	id uuid.UUID
	fn func(any)
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the time source used for the recently opened ledger.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithStaleFetchGuard discards refresh results that complete after a newer
// refresh of the same key was started. Off by default: the last fetch to
// complete wins.
func WithStaleFetchGuard(enabled bool) Option {
	return func(c *Cache) { c.guard = enabled }
}

// New creates a cache over s.
func New(s store.Store, opts ...Option) *Cache {
	c := &Cache{
		store:       s,
		clock:       time.Now,
		subscribers: make(map[string][]subscriber),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying durable store.
func (c *Cache) Store() store.Store {
	return c.store
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time {
	return c.clock()
}

func (c *Cache) subscribe(key string, fn func(any)) func() {
	id := uuid.New()
	c.mu.Lock()
	c.subscribers[key] = append(c.subscribers[key], subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.subscribers[key] = slices.DeleteFunc(c.subscribers[key], func(s subscriber) bool { return s.id == id })
			if len(c.subscribers[key]) == 0 {
				delete(c.subscribers, key)
			}
		})
	}
}

// notify calls the key's observers in subscription order, outside the lock so
// observers may call back into the cache.
func (c *Cache) notify(key string, value any) {
	c.mu.Lock()
	subs := slices.Clone(c.subscribers[key])
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

func (c *Cache) beginFetch(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key]
}

func (c *Cache) isCurrent(key string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key] == gen
}

// Invalidate removes the persisted entry for key. Observers are not notified.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear removes every persisted entry whose key starts with prefix and returns how many were removed.
func (c *Cache) Clear(ctx context.Context, prefix string) (int, error) {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}
