// Package watcher watches repository roots and reports, debounced, when
// directories below them change so the repository list can be rescanned.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"notionat/internal/utils"
)

// DefaultDebounceDuration is the default debounce window for batching rapid changes.
const DefaultDebounceDuration = 1 * time.Second

// Config holds file watcher configuration.
type Config struct {
	Roots            []string      // Directories to watch
	Depth            int           // Levels below each root to watch (fsnotify is not recursive)
	DebounceDuration time.Duration // Debounce window to batch rapid changes
	OnChange         func()        // Called once per burst of changes
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(roots []string, depth int, onChange func()) *Config {
	return &Config{
		Roots:            roots,
		Depth:            depth,
		DebounceDuration: DefaultDebounceDuration,
		OnChange:         onChange,
	}
}

// Watcher monitors directory changes under the roots.
type Watcher struct {
	cfg     *Config
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	mu      sync.Mutex
}

// New creates a new Watcher instance.
func New(cfg *Config) (*Watcher, error) {
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start begins watching the configured roots.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}
	w.mu.Unlock()

	for _, root := range w.cfg.Roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			// Skip non-existent roots - they may be created later
			continue
		}
		if err := w.addTree(root, root); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.eventLoop()
	return nil
}

// Watched returns the directories currently watched.
func (w *Watcher) Watched() []string {
	return w.fsw.WatchList()
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.fsw.Close()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// addTree watches dir and its subdirectories down to the configured depth.
// Hidden directories and the contents of repositories are left out.
func (w *Watcher) addTree(root, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch path %q: %w", path, err)
		}
		if depthBelow(root, path) >= w.cfg.Depth {
			return filepath.SkipDir
		}
		if path != root {
			if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
				return filepath.SkipDir
			}
		}
		return nil
	})
}

// rootOf returns the configured root containing path.
func (w *Watcher) rootOf(path string) (string, bool) {
	for _, root := range w.cfg.Roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

// eventLoop processes fsnotify events with debouncing.
func (w *Watcher) eventLoop() {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	// debounceCh fires when the debounce window expires
	debounceCh := make(chan struct{}, 1)

	resetDebounce := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(w.cfg.DebounceDuration, func() {
			select {
			case debounceCh <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directories are watched too, within depth.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if root, ok := w.rootOf(event.Name); ok && depthBelow(root, event.Name) <= w.cfg.Depth {
						if err := w.addTree(root, event.Name); err != nil {
							utils.Debugf("watching %s: %v", event.Name, err)
						}
					}
				}
			}
			resetDebounce()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Warnf("file watcher: %v", err)

		case <-debounceCh:
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
