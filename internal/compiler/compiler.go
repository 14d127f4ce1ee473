// Package compiler hosts the primary client build. It runs the build engine
// and calls the plugin hooks around every compilation, in one-shot or watch
// mode.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/hooks"
	"git.home.luguber.info/inful/staticrender/internal/logfields"
	"git.home.luguber.info/inful/staticrender/internal/observability"
	"git.home.luguber.info/inful/staticrender/internal/plugin"
)

// Compiler builds the primary bundle and drives plugins through its hooks.
type Compiler struct {
	Build  *config.BuildConfig
	Watch  config.WatchConfig
	Engine engine.Engine
	Hooks  *hooks.Hooks
	Logger *slog.Logger
	// ExtraIgnore lists further directories the watcher skips, such as
	// plugin output directories.
	ExtraIgnore []string

	plugins   *plugin.Registry
	applyOnce sync.Once
	applyErr  error
}

// New creates a compiler for build.
func New(build *config.BuildConfig, watch config.WatchConfig, eng engine.Engine, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{
		Build:   build,
		Watch:   watch,
		Engine:  eng,
		Hooks:   hooks.New(),
		Logger:  logger,
		plugins: plugin.NewRegistry(),
	}
}

// Use registers plugins. They are applied before the first compilation.
func (c *Compiler) Use(plugins ...plugin.Plugin) error {
	for _, p := range plugins {
		if err := c.plugins.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Plugins returns the registered plugins.
func (c *Compiler) Plugins() []plugin.Plugin {
	return c.plugins.List()
}

func (c *Compiler) apply() error {
	c.applyOnce.Do(func() {
		c.applyErr = c.plugins.ApplyAll(c.Hooks)
	})
	return c.applyErr
}

// Run calls the run hook and then compiles once.
func (c *Compiler) Run(ctx context.Context) (*engine.Result, error) {
	if err := c.apply(); err != nil {
		return nil, err
	}
	defer c.cleanup()

	ctx = observability.WithBuildID(ctx, uuid.NewString()[:8])
	ctx = observability.WithTrigger(ctx, "run")

	if err := c.Hooks.Run.Call(ctx, c.Build); err != nil {
		return nil, err
	}
	return c.compile(ctx)
}

// RunWatch compiles once per debounced batch of source changes, calling the
// watchRun hook before each compilation, until ctx is cancelled. The
// watchClose hook is called on the way out.
func (c *Compiler) RunWatch(ctx context.Context) error {
	if err := c.apply(); err != nil {
		return err
	}
	defer c.cleanup()

	w, err := NewWatcher(c.Watch.Paths, c.ignored(), c.debounce(), c.Logger)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "cannot watch sources").Build()
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot watch sources").Build()
	}
	defer func() {
		if err := w.Stop(); err != nil {
			c.Logger.Warn("Error closing source watcher", logfields.Error(err))
		}
		c.Hooks.WatchClose.Call()
	}()

	c.watchCompile(ctx, nil)
	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Stopping watch")
			return nil
		case batch, ok := <-w.Changes():
			if !ok {
				return nil
			}
			c.watchCompile(ctx, batch)
		}
	}
}

func (c *Compiler) watchCompile(ctx context.Context, changed []string) {
	ctx = observability.WithBuildID(ctx, uuid.NewString()[:8])
	ctx = observability.WithTrigger(ctx, "watch")
	if len(changed) > 0 {
		c.Logger.InfoContext(ctx, fmt.Sprintf("Rebuilding after %d changed files", len(changed)), slog.Any("files", changed))
	}

	if err := c.Hooks.WatchRun.Call(ctx, c.Build); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.Logger.ErrorContext(ctx, "watchRun hook failed", logfields.Error(err))
		return
	}
	if _, err := c.compile(ctx); err != nil && ctx.Err() == nil {
		c.Logger.ErrorContext(ctx, "Compilation failed", logfields.Error(err))
	}
}

func (c *Compiler) compile(ctx context.Context) (*engine.Result, error) {
	res, err := c.Engine.Run(ctx, c.Build)
	if err != nil {
		return res, foundationerrors.WrapError(err, foundationerrors.CategoryBuild, "compilation failed").Build()
	}
	if res.HasErrors() {
		return res, foundationerrors.BuildError(fmt.Sprintf("compilation failed with %d errors:\n%s", len(res.Errors), res.ErrorSummary())).Build()
	}
	c.Logger.InfoContext(ctx, "Compiled client bundle",
		slog.Int("files", len(res.OutputFiles)),
		slog.Int("warnings", len(res.Warnings)),
		logfields.Duration(res.Duration))
	return res, nil
}

func (c *Compiler) cleanup() {
	if err := c.plugins.CleanupAll(); err != nil {
		c.Logger.Warn("Plugin cleanup failed", logfields.Error(err))
	}
}

// ignored adds the build output directories to the configured ignore list
// so writing them does not trigger a rebuild.
func (c *Compiler) ignored() []string {
	ignore := append([]string(nil), c.Watch.Ignore...)
	if c.Build != nil && c.Build.Output.Path != "" {
		ignore = append(ignore, c.Build.Output.Path)
	}
	return append(ignore, c.ExtraIgnore...)
}

func (c *Compiler) debounce() time.Duration {
	return c.Watch.DebounceDuration()
}
