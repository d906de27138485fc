package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"notionat/internal/utils"
)

// FetchFunc loads the live value of a resource. It must have no side effects
// other than network I/O.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Delivery is the stale-or-absent value handed out before a refresh completes.
type Delivery[T any] struct {
	Value T
	Found bool
}

// Result is the outcome of a refresh: a fresh value, or the reason there is none.
type Result[T any] struct {
	Value T
	Err   error
}

// Entry is the cache for one resource key.
type Entry[T any] struct {
	cache   *Cache
	key     string
	isEmpty func(T) bool
}

// NewEntry returns the entry for key. Entries are cheap; any number may share a key.
func NewEntry[T any](c *Cache, key string) *Entry[T] {
	return &Entry[T]{cache: c, key: key, isEmpty: isZeroOrEmpty[T]}
}

// WithEmpty overrides how a fetched value is judged empty.
func (e *Entry[T]) WithEmpty(isEmpty func(T) bool) *Entry[T] {
	out := *e
	out.isEmpty = isEmpty
	return &out
}

// Key returns the store key.
func (e *Entry[T]) Key() string {
	return e.key
}

// isZeroOrEmpty treats nil, zero values, and empty slices, maps and strings as empty.
func isZeroOrEmpty[T any](v T) bool {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}

// Read returns the stored value. Malformed stored JSON reads as absent.
// Only store failures are returned as errors.
func (e *Entry[T]) Read(ctx context.Context) (T, bool, error) {
	var zero T

	raw, ok, err := e.cache.store.Get(ctx, e.key)
	if err != nil {
		return zero, false, fmt.Errorf("reading %s: %w", e.key, err)
	}
	if !ok {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		utils.GetLogger().With("key", e.key, "error", err).Debug("ignoring malformed cache entry")
		return zero, false, nil
	}
	return v, true, nil
}

// Write hands v to the key's observers, then persists it. Observers see the
// value even when persisting fails; the persist error is returned.
func (e *Entry[T]) Write(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", e.key, err)
	}

	e.cache.notify(e.key, v)

	if err := e.cache.store.Set(ctx, e.key, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", e.key, err)
	}
	return nil
}

// Subscribe registers fn for every value written to the key and returns a
// function that unregisters it.
func (e *Entry[T]) Subscribe(fn func(T)) (cancel func()) {
	return e.cache.subscribe(e.key, func(v any) {
		if typed, ok := v.(T); ok {
			fn(typed)
		}
	})
}

// Refresh runs fetch and writes a non-empty result. On a fetch error or an
// empty result the stored entry is untouched and the error is returned. A
// failure to persist a fresh value is logged; the value is still returned.
func (e *Entry[T]) Refresh(ctx context.Context, fetch FetchFunc[T]) (T, error) {
	var zero T
	gen := e.cache.beginFetch(e.key)

	v, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	if e.isEmpty(v) {
		return zero, ErrEmptyResult
	}
	if e.cache.guard && !e.cache.isCurrent(e.key, gen) {
		utils.Debugf("discarding superseded fetch for %s", e.key)
		return zero, ErrSuperseded
	}

	if err := e.Write(ctx, v); err != nil {
		utils.GetLogger().With("key", e.key, "error", err).Warn("fresh value not persisted")
	}
	return v, nil
}

// GetThenRefresh returns the stored value (or absent) right away and starts a
// refresh in the background. The channel yields exactly one Result, fresh value
// or error, then closes. A store read failure is treated as absent.
func (e *Entry[T]) GetThenRefresh(ctx context.Context, fetch FetchFunc[T]) (Delivery[T], <-chan Result[T]) {
	v, found, err := e.Read(ctx)
	if err != nil {
		utils.Debugf("cache read failed, treating %s as absent: %v", e.key, err)
	}

	results := make(chan Result[T], 1)
	go func() {
		defer close(results)
		fresh, err := e.Refresh(ctx, fetch)
		results <- Result[T]{Value: fresh, Err: err}
	}()

	return Delivery[T]{Value: v, Found: found}, results
}
