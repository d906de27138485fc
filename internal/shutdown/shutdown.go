// Package shutdown coordinates stopping long-running commands such as
// 'repos --watch': signal handling, cleanup registration and a context that
// is cancelled once shutdown begins.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"notionat/internal/utils"
)

// CleanupFunc releases a resource. The context is cancelled when the
// shutdown deadline passes.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager runs registered cleanups once shutdown is requested.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	shutdown bool
	ran      bool
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
}

// NewManager creates a manager whose context is live until Shutdown.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{ctx: ctx, cancel: cancel}
}

// RegisterCleanup adds fn to the cleanups. They run last registered first,
// so a resource opened later is closed before the ones it depends on.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// NotifyOn calls Shutdown when one of sigs arrives. The returned func stops
// listening.
func (m *Manager) NotifyOn(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			utils.Debugf("received %s, shutting down", sig)
			m.Shutdown()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Shutdown cancels the context. Safe to call more than once and from any goroutine.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		m.cancel()
	})
}

// Done is closed once Shutdown is called.
func (m *Manager) Done() <-chan struct{} {
	return m.ctx.Done()
}

// Wait runs the cleanups and returns ctx.Err if they outlast ctx. Cleanup
// errors are logged, not returned. Cleanups run at most once.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	if m.ran {
		m.mu.Unlock()
		return nil
	}
	m.ran = true
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i].fn(ctx); err != nil {
				utils.Warnf("cleanup %s: %v", cleanups[i].name, err)
			}
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}
