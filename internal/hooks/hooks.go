// Package hooks provides the lifecycle hooks a host build tool exposes to
// plugins: run, watchRun and watchClose.
package hooks

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/staticrender/internal/config"
)

// AsyncHandler handles one trigger of an async hook. It must call done
// exactly once when it is finished.
type AsyncHandler func(ctx context.Context, cfg *config.BuildConfig, done func(error))

type asyncTap struct {
	name string
	fn   AsyncHandler
}

// AsyncSeriesHook calls its handlers one after another. A handler's error
// stops the series and is passed to the final callback.
type AsyncSeriesHook struct {
	name string
	mu   sync.RWMutex
	taps []asyncTap
}

// NewAsyncSeriesHook returns an empty hook.
func NewAsyncSeriesHook(name string) *AsyncSeriesHook {
	return &AsyncSeriesHook{name: name}
}

// Name returns the hook name.
func (h *AsyncSeriesHook) Name() string { return h.name }

// TapAsync registers fn under the plugin name.
func (h *AsyncSeriesHook) TapAsync(name string, fn AsyncHandler) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.taps = append(h.taps, asyncTap{name: name, fn: fn})
	h.mu.Unlock()
}

// Taps returns the names of the registered handlers in call order.
func (h *AsyncSeriesHook) Taps() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.taps))
	for _, t := range h.taps {
		names = append(names, t.name)
	}
	return names
}

// CallAsync runs the handlers in series and calls final once with the first
// error, or nil when all handlers succeeded. A handler that calls done more
// than once is only heard the first time.
func (h *AsyncSeriesHook) CallAsync(ctx context.Context, cfg *config.BuildConfig, final func(error)) {
	h.mu.RLock()
	taps := append([]asyncTap(nil), h.taps...)
	h.mu.RUnlock()

	var next func(i int)
	next = func(i int) {
		if i == len(taps) {
			final(nil)
			return
		}
		var once sync.Once
		taps[i].fn(ctx, cfg, func(err error) {
			once.Do(func() {
				if err != nil {
					final(&TapError{Hook: h.name, Tap: taps[i].name, Err: err})
					return
				}
				next(i + 1)
			})
		})
	}
	next(0)
}

// Call runs the handlers and blocks until the series completes or ctx is
// done.
func (h *AsyncSeriesHook) Call(ctx context.Context, cfg *config.BuildConfig) error {
	result := make(chan error, 1)
	h.CallAsync(ctx, cfg, func(err error) { result <- err })
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type syncTap struct {
	name string
	fn   func()
}

// SyncHook calls its handlers in registration order.
type SyncHook struct {
	name string
	mu   sync.RWMutex
	taps []syncTap
}

// NewSyncHook returns an empty hook.
func NewSyncHook(name string) *SyncHook {
	return &SyncHook{name: name}
}

// Name returns the hook name.
func (h *SyncHook) Name() string { return h.name }

// Tap registers fn under the plugin name.
func (h *SyncHook) Tap(name string, fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.taps = append(h.taps, syncTap{name: name, fn: fn})
	h.mu.Unlock()
}

// Taps returns the names of the registered handlers in call order.
func (h *SyncHook) Taps() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.taps))
	for _, t := range h.taps {
		names = append(names, t.name)
	}
	return names
}

// Call runs every handler.
func (h *SyncHook) Call() {
	h.mu.RLock()
	taps := append([]syncTap(nil), h.taps...)
	h.mu.RUnlock()
	for _, t := range taps {
		t.fn()
	}
}

// Hooks is the set of hooks a compiler exposes.
type Hooks struct {
	// Run is called before a one-shot compilation.
	Run *AsyncSeriesHook
	// WatchRun is called before every compilation in watch mode.
	WatchRun *AsyncSeriesHook
	// WatchClose is called when watch mode ends.
	WatchClose *SyncHook
}

// New returns an empty set of hooks.
func New() *Hooks {
	return &Hooks{
		Run:        NewAsyncSeriesHook("run"),
		WatchRun:   NewAsyncSeriesHook("watchRun"),
		WatchClose: NewSyncHook("watchClose"),
	}
}
