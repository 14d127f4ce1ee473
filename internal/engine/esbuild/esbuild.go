package esbuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
	"git.home.luguber.info/inful/staticrender/internal/logfields"
)

// Engine is an in-process esbuild bundler.
type Engine struct {
	logger *slog.Logger
}

// New returns an Engine logging through logger (slog.Default when nil).
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

var _ engine.Engine = (*Engine)(nil)

// Run compiles cfg once. Cancelling ctx cancels the build.
func (e *Engine) Run(ctx context.Context, cfg *config.BuildConfig) (*engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}

	bctx, cerr := api.Context(opts)
	if cerr != nil {
		return nil, contextError(cerr)
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	start := time.Now()
	res := bctx.Rebuild()
	result := convertResult(&res, time.Since(start))
	writeOutputs(res.OutputFiles, result)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	e.logResult(cfg, result)
	return result, nil
}

// Watch compiles cfg and keeps rebuilding on change. handler runs on an
// esbuild goroutine after every build, the initial one included.
func (e *Engine) Watch(cfg *config.BuildConfig, opts engine.WatchOptions, handler engine.Handler) (engine.Watching, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: nil watch handler", engine.ErrInvalidConfig)
	}
	bopts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}
	if opts.Poll > 0 || opts.AggregateTimeout > 0 {
		e.logger.Debug("esbuild watch uses its own polling; watch options ignored",
			slog.Duration("poll", opts.Poll),
			slog.Duration("aggregate_timeout", opts.AggregateTimeout))
	}

	var (
		mu    sync.Mutex
		start = time.Now()
	)
	bopts.Plugins = append(bopts.Plugins, api.Plugin{
		Name: "staticrender-on-end",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				mu.Lock()
				start = time.Now()
				mu.Unlock()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(res *api.BuildResult) (api.OnEndResult, error) {
				mu.Lock()
				elapsed := time.Since(start)
				mu.Unlock()
				result := convertResult(res, elapsed)
				writeOutputs(res.OutputFiles, result)
				e.logResult(cfg, result)
				handler(result, nil)
				return api.OnEndResult{}, nil
			})
		},
	})

	bctx, cerr := api.Context(bopts)
	if cerr != nil {
		return nil, contextError(cerr)
	}
	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		bctx.Dispose()
		return nil, fmt.Errorf("start esbuild watch: %w", err)
	}
	return &watching{ctx: bctx}, nil
}

func (e *Engine) logResult(cfg *config.BuildConfig, r *engine.Result) {
	if !config.BoolValue(cfg.Stats, true) {
		return
	}
	for _, w := range r.Warnings {
		e.logger.Warn("Build warning", slog.String("message", w.String()))
	}
	e.logger.Debug("Build finished",
		logfields.Duration(r.Duration),
		slog.Int("errors", len(r.Errors)),
		slog.Int("warnings", len(r.Warnings)),
		slog.Int("outputs", len(r.OutputFiles)))
}

type watching struct {
	ctx  api.BuildContext
	once sync.Once
}

// Close stops the watcher. Closing twice returns engine.ErrWatchClosed.
func (w *watching) Close() error {
	err := engine.ErrWatchClosed
	w.once.Do(func() {
		w.ctx.Dispose()
		err = nil
	})
	return err
}

// writeOutputs persists in-memory outputs. Write failures are reported as
// compile errors on r.
func writeOutputs(files []api.OutputFile, r *engine.Result) {
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			r.Errors = append(r.Errors, engine.Message{Text: err.Error(), File: f.Path})
			continue
		}
		if err := os.WriteFile(f.Path, f.Contents, 0o644); err != nil {
			r.Errors = append(r.Errors, engine.Message{Text: err.Error(), File: f.Path})
		}
	}
}

func contextError(cerr *api.ContextError) error {
	msgs := convertMessages(cerr.Errors)
	r := &engine.Result{Errors: msgs}
	return fmt.Errorf("%w: %s", engine.ErrInvalidConfig, r.ErrorSummary())
}

func convertResult(res *api.BuildResult, d time.Duration) *engine.Result {
	out := &engine.Result{
		Errors:   convertMessages(res.Errors),
		Warnings: convertMessages(res.Warnings),
		Duration: d,
	}
	for _, f := range res.OutputFiles {
		out.OutputFiles = append(out.OutputFiles, f.Path)
	}
	return out
}

func convertMessages(in []api.Message) []engine.Message {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.Message, 0, len(in))
	for _, m := range in {
		msg := engine.Message{Text: m.Text}
		if m.PluginName != "" {
			msg.Text = fmt.Sprintf("[plugin %s] %s", m.PluginName, m.Text)
		}
		if loc := m.Location; loc != nil {
			msg.File = loc.File
			msg.Line = loc.Line
			msg.Column = loc.Column
			msg.LineText = loc.LineText
		}
		out = append(out, msg)
	}
	return out
}
