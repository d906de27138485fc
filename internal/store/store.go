// Package store defines the durable key-value store that backs the local cache.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Store is a process-wide durable key-value store. Keys and values are strings;
// values are UTF-8 text (JSON in practice).
type Store interface {
	// Get returns the value stored under key. The bool is false when no entry exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys with the given prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// ErrWriteFailed is returned by Memory when write failures are injected.
var ErrWriteFailed = errors.New("store write failed")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Memory is an in-memory Store used by tests and ephemeral runs.
type Memory struct {
	mu         sync.RWMutex
	data       map[string]string
	failWrites bool
	closed     bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// FailWrites makes subsequent Set and Delete calls fail with ErrWriteFailed.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}

// Get returns the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set overwrites the value stored under key.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.failWrites {
		return ErrWriteFailed
	}
	m.data[key] = value
	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.failWrites {
		return ErrWriteFailed
	}
	delete(m.data, key)
	return nil
}

// Keys returns the sorted keys that start with prefix.
func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := []string{}
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
