package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/staticrender/internal/logfields"
)

// Watcher monitors source directories and reports debounced batches of
// changed paths.
type Watcher struct {
	roots    []string
	ignore   []string
	debounce time.Duration
	logger   *slog.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  map[string]struct{}
	changes  chan []string
	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
	done     chan struct{}
}

// NewWatcher creates a watcher for roots. Entries of ignore without a path
// separator match any path segment; absolute entries match the directory
// and everything below it.
func NewWatcher(roots, ignore []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", r, err)
		}
		abs = append(abs, a)
	}

	return &Watcher{
		roots:    abs,
		ignore:   ignore,
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		pending:  make(map[string]struct{}),
		changes:  make(chan []string, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Changes delivers batches of changed paths, sorted. The channel is closed
// when the watcher stops.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start adds every root directory tree and begins monitoring.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.logger.Info("Starting source watcher", slog.Any("paths", w.roots), slog.Duration("debounce", w.debounce))
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.loop(ctx)
	return nil
}

// Stop ends monitoring and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.done
		} else {
			close(w.changes)
		}
	})
	return err
}

func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if filepath.IsAbs(ig) {
			if path == ig || strings.HasPrefix(path, ig+string(filepath.Separator)) {
				return true
			}
			continue
		}
		for _, seg := range strings.Split(path, string(filepath.Separator)) {
			if seg == ig {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.changes)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))

			w.mu.Lock()
			w.pending[event.Name] = struct{}{}
			w.mu.Unlock()

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			batch := w.drain()
			if len(batch) == 0 {
				continue
			}
			select {
			case w.changes <- batch:
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Source watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(batch)
	return batch
}
