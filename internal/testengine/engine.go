// Package testengine provides a scriptable engine.Engine for tests.
package testengine

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
)

// Engine records every compile request and lets tests drive watch
// completions by hand.
type Engine struct {
	mu sync.Mutex

	// Result is returned by Run; an empty Result when nil.
	Result *engine.Result
	// RunErr is returned by Run.
	RunErr error
	// WatchErr makes Watch fail.
	WatchErr error
	// OnBuild runs for every Run call and every Emit, before the result is
	// delivered. Tests use it to write the artifact.
	OnBuild func(cfg *config.BuildConfig)

	runs     []*config.BuildConfig
	watches  []*config.BuildConfig
	handlers []engine.Handler
	watchers []*Watching
}

var _ engine.Engine = (*Engine)(nil)

// New returns an Engine whose builds succeed.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Run(ctx context.Context, cfg *config.BuildConfig) (*engine.Result, error) {
	e.mu.Lock()
	e.runs = append(e.runs, cfg)
	onBuild, res, err := e.OnBuild, e.Result, e.RunErr
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if onBuild != nil {
		onBuild(cfg)
	}
	if res == nil {
		res = &engine.Result{}
	}
	return res, nil
}

func (e *Engine) Watch(cfg *config.BuildConfig, _ engine.WatchOptions, handler engine.Handler) (engine.Watching, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.WatchErr != nil {
		return nil, e.WatchErr
	}
	w := &Watching{}
	e.watches = append(e.watches, cfg)
	e.handlers = append(e.handlers, handler)
	e.watchers = append(e.watchers, w)
	return w, nil
}

// Emit delivers a completion from the most recent watcher, synchronously.
// It reports false when no watcher was started or it was closed.
func (e *Engine) Emit(res *engine.Result, err error) bool {
	e.mu.Lock()
	if len(e.handlers) == 0 {
		e.mu.Unlock()
		return false
	}
	i := len(e.handlers) - 1
	h, w, cfg, onBuild := e.handlers[i], e.watchers[i], e.watches[i], e.OnBuild
	e.mu.Unlock()

	if w.Closed() > 0 {
		return false
	}
	if onBuild != nil && err == nil {
		onBuild(cfg)
	}
	if res == nil {
		res = &engine.Result{}
	}
	h(res, err)
	return true
}

// Runs returns the configurations passed to Run.
func (e *Engine) Runs() []*config.BuildConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*config.BuildConfig(nil), e.runs...)
}

// WatchStarts returns how many watchers were started.
func (e *Engine) WatchStarts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.watches)
}

// Watcher returns the i-th started watcher.
func (e *Engine) Watcher(i int) *Watching {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watchers[i]
}

// Watching counts Close calls.
type Watching struct {
	mu     sync.Mutex
	closed int
}

func (w *Watching) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed++
	if w.closed > 1 {
		return engine.ErrWatchClosed
	}
	return nil
}

// Closed returns how often Close was called.
func (w *Watching) Closed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
