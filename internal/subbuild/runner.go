package subbuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/logfields"
	"git.home.luguber.info/inful/staticrender/internal/metrics"
	"git.home.luguber.info/inful/staticrender/internal/observability"
	"git.home.luguber.info/inful/staticrender/internal/render"
)

// Modes label sub-builds in logs and metrics.
const (
	ModeRun   = "run"
	ModeWatch = "watch"
)

// Callback completes a trigger of the primary build tool.
type Callback = func(error)

// ArtifactLoader loads a freshly built artifact as a render module.
type ArtifactLoader interface {
	Load(ctx context.Context, path string) (*render.Module, error)
}

// Runner compiles the sub-build and renders its pages.
type Runner struct {
	Engine    engine.Engine
	Loader    ArtifactLoader
	Pipeline  *render.Pipeline
	Options   config.Options
	OutputDir string

	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Allocate reserves the artifact of each trigger; NewArtifact when nil.
	Allocate ArtifactAllocator
	// Getwd returns the sub-build context directory; os.Getwd when nil.
	Getwd func() (string, error)
}

// Prepare allocates an artifact and derives the sub-build configuration
// for it.
func (r *Runner) Prepare(primary *config.BuildConfig) (*config.BuildConfig, Artifact, error) {
	allocate := r.Allocate
	if allocate == nil {
		allocate = NewArtifact
	}
	artifact, err := allocate()
	if err != nil {
		return nil, Artifact{}, err
	}

	getwd := r.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	cwd, err := getwd()
	if err != nil {
		return nil, Artifact{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve working directory").Build()
	}

	cfg, err := Derive(primary, r.Options, artifact, cwd)
	if err != nil {
		return nil, Artifact{}, err
	}
	r.logger().Debug("Derived sub-build configuration",
		logfields.Artifact(artifact.Path),
		logfields.Entry(fmt.Sprint(cfg.Entry.Named[EntryName])))
	return cfg, artifact, nil
}

// Run compiles the sub-build once, renders every page and calls done. done
// receives an error only when the sub-build itself fails, or when
// FailOnPageError is set and a page failed.
func (r *Runner) Run(ctx context.Context, primary *config.BuildConfig, done Callback) {
	cfg, artifact, err := r.Prepare(primary)
	if err != nil {
		r.finish(ModeRun, err, done)
		return
	}
	res, err := r.Engine.Run(ctx, cfg)
	r.Complete(ctx, ModeRun, artifact, res, err, done)
}

// Complete handles one finished compilation: it fails the trigger on engine
// errors, otherwise loads the artifact, renders all pages and calls done.
func (r *Runner) Complete(ctx context.Context, mode string, artifact Artifact, res *engine.Result, buildErr error, done Callback) {
	if res != nil {
		r.recorder().ObserveSubBuildDuration(mode, res.Duration)
	}
	if buildErr != nil {
		r.finish(mode, foundationerrors.WrapError(buildErr, foundationerrors.CategoryBuild, "Received webpack error").
			Fatal().
			Build(), done)
		return
	}
	if res.HasErrors() {
		stats, _ := res.ToJSON()
		r.finish(mode, foundationerrors.BuildError(fmt.Sprintf("Received error compiling: %s", res.ErrorSummary())).
			WithContext("stats", string(stats)).
			Build(), done)
		return
	}

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		r.finish(mode, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "create output directory").
			WithContext("output", r.OutputDir).
			Build(), done)
		return
	}

	module, err := r.Loader.Load(ctx, artifact.Path)
	if err != nil {
		r.finish(mode, foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "load sub-build artifact").
			WithContext("artifact", artifact.Path).
			Build(), done)
		return
	}
	defer func() {
		if cerr := module.Close(); cerr != nil {
			r.logger().Warn("Failed to close render module", logfields.Error(cerr))
		}
	}()

	start := time.Now()
	summary := r.pipeline().RenderAll(ctx, module, r.Options.Pages)
	r.logger().InfoContext(ctx, fmt.Sprintf("Rendered %d pages", len(summary.Pages)),
		slog.Int("written", summary.Written),
		slog.Int("cached", summary.Cached),
		slog.Int("failed", summary.Failed),
		logfields.Duration(time.Since(start)))

	if r.Options.FailOnPageError {
		r.finish(mode, summary.Err(), done)
		return
	}
	r.finish(mode, nil, done)
}

func (r *Runner) finish(mode string, err error, done Callback) {
	outcome := metrics.TriggerSuccess
	if err != nil {
		outcome = metrics.TriggerFailed
	}
	r.recorder().IncTriggerOutcome(mode, outcome)
	if done != nil {
		done(err)
	}
}

func (r *Runner) pipeline() *render.Pipeline {
	if r.Pipeline == nil {
		r.Pipeline = render.NewPipeline(r.OutputDir).WithRecorder(r.Recorder).WithLogger(r.Logger)
		r.Pipeline.Concurrency = r.Options.Concurrency
	}
	return r.Pipeline
}

func (r *Runner) logger() *slog.Logger {
	return observability.PluginLogger(r.Logger)
}

func (r *Runner) recorder() metrics.Recorder {
	if r.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return r.Recorder
}
