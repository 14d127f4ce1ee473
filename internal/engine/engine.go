package engine

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/staticrender/internal/config"
)

var (
	// ErrInvalidConfig indicates the build configuration cannot be mapped onto the engine.
	ErrInvalidConfig = errors.New("invalid build configuration")
	// ErrWatchClosed indicates an operation on a watcher that was already closed.
	ErrWatchClosed = errors.New("watcher closed")
)

// Engine compiles build configurations.
type Engine interface {
	// Run compiles cfg once.
	Run(ctx context.Context, cfg *config.BuildConfig) (*Result, error)
	// Watch compiles cfg and recompiles on change until the returned
	// Watching is closed. handler receives every completion, including
	// the initial one.
	Watch(cfg *config.BuildConfig, opts WatchOptions, handler Handler) (Watching, error)
}

// Handler receives the outcome of one compilation.
type Handler func(*Result, error)

// Watching is a live watcher.
type Watching interface {
	Close() error
}

// WatchOptions tunes a watcher. The zero value uses engine defaults.
type WatchOptions struct {
	// AggregateTimeout delays a rebuild after the first change so further
	// changes are batched into it.
	AggregateTimeout time.Duration
	// Poll switches to polling at the given interval when non-zero.
	Poll time.Duration
}
