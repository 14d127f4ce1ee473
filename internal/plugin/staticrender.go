package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/hooks"
	"git.home.luguber.info/inful/staticrender/internal/logfields"
	"git.home.luguber.info/inful/staticrender/internal/metrics"
	"git.home.luguber.info/inful/staticrender/internal/observability"
	"git.home.luguber.info/inful/staticrender/internal/subbuild"
	"git.home.luguber.info/inful/staticrender/internal/version"
)

// StaticRenderName is the name the static render plugin taps hooks with.
const StaticRenderName = "StaticRenderPlugin"

// StaticRenderDeps are the collaborators of the static render plugin.
type StaticRenderDeps struct {
	Engine   engine.Engine
	Loader   subbuild.ArtifactLoader
	Logger   *slog.Logger
	Recorder metrics.Recorder

	// Allocate and Getwd override artifact allocation and the sub-build
	// context directory.
	Allocate subbuild.ArtifactAllocator
	Getwd    func() (string, error)
}

// StaticRender renders the pages of a sub-build of the application into
// HTML files whenever the primary build runs.
type StaticRender struct {
	BasePlugin

	opts   config.Options
	logger *slog.Logger

	once    sync.Once
	runner  *subbuild.Runner
	session *subbuild.WatchSession

	mu        sync.Mutex
	announced bool
}

// NewStaticRender validates opts and returns the plugin.
func NewStaticRender(opts config.Options, deps StaticRenderDeps) (*StaticRender, error) {
	if err := config.ValidateOptions(&opts); err != nil {
		return nil, err
	}
	if deps.Engine == nil {
		return nil, foundationerrors.ValidationError("build engine is required").Build()
	}
	if deps.Loader == nil {
		return nil, foundationerrors.ValidationError("artifact loader is required").Build()
	}

	p := &StaticRender{
		opts:   opts,
		logger: observability.PluginLogger(deps.Logger),
		runner: &subbuild.Runner{
			Engine:   deps.Engine,
			Loader:   deps.Loader,
			Options:  opts,
			Logger:   deps.Logger,
			Recorder: deps.Recorder,
			Allocate: deps.Allocate,
			Getwd:    deps.Getwd,
		},
	}
	p.session = subbuild.NewWatchSession(p.runner)

	dups := opts.DuplicateRoutes()
	routes := make([]string, 0, len(dups))
	for route := range dups {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	for _, route := range routes {
		p.logger.Warn(fmt.Sprintf("Route %s is rendered by more than one page", route),
			logfields.Route(route),
			slog.String("pages", strings.Join(dups[route], ",")))
	}
	return p, nil
}

// Metadata returns the plugin metadata.
func (p *StaticRender) Metadata() PluginMetadata {
	return PluginMetadata{
		Name:        StaticRenderName,
		Version:     version.Version,
		Type:        PluginTypeRender,
		Description: "Statically renders application routes to HTML files",
		Capabilities: []PluginCapability{
			CapabilityWatch,
			CapabilityCache,
			CapabilityMetrics,
		},
	}
}

// Apply taps run, watchRun and watchClose.
func (p *StaticRender) Apply(h *hooks.Hooks) error {
	if h == nil {
		return fmt.Errorf("hooks are required")
	}
	h.Run.TapAsync(StaticRenderName, p.run)
	h.WatchRun.TapAsync(StaticRenderName, p.watchRun)
	h.WatchClose.Tap(StaticRenderName, p.watchClose)
	return nil
}

// Cleanup closes the watch session if one is still running.
func (p *StaticRender) Cleanup() error {
	if p.session.Active() {
		return p.session.Close()
	}
	return nil
}

// Session exposes the watch session.
func (p *StaticRender) Session() *subbuild.WatchSession {
	return p.session
}

func (p *StaticRender) run(ctx context.Context, primary *config.BuildConfig, done func(error)) {
	if err := p.setup(primary); err != nil {
		done(err)
		return
	}
	ctx = p.triggerContext(ctx, subbuild.ModeRun)
	p.logger.InfoContext(ctx, fmt.Sprintf("Building %d pages", len(p.opts.Pages)), logfields.Pages(len(p.opts.Pages)))
	p.runner.Run(ctx, primary, done)
}

func (p *StaticRender) watchRun(ctx context.Context, primary *config.BuildConfig, done func(error)) {
	if err := p.setup(primary); err != nil {
		done(err)
		return
	}
	ctx = p.triggerContext(ctx, subbuild.ModeWatch)

	p.mu.Lock()
	first := !p.announced
	p.announced = true
	p.mu.Unlock()
	if first {
		p.logger.InfoContext(ctx, fmt.Sprintf("Watching %d pages", len(p.opts.Pages)), logfields.Pages(len(p.opts.Pages)))
	}
	p.session.Trigger(ctx, primary, done)
}

func (p *StaticRender) watchClose() {
	if err := p.session.Close(); err != nil {
		p.logger.Warn("Failed to close sub-build watcher", logfields.Error(err))
	}
	p.mu.Lock()
	p.announced = false
	p.mu.Unlock()
}

// setup fixes the output directory on the first trigger, once the primary
// output path is known.
func (p *StaticRender) setup(primary *config.BuildConfig) error {
	if primary == nil {
		return foundationerrors.ValidationError("primary build configuration is required").Build()
	}
	p.once.Do(func() {
		outputDir := p.opts.Output.Path
		if outputDir == "" {
			outputDir = primary.Output.Path
		}
		p.runner.OutputDir = outputDir
		p.logger.Debug("Static render output directory", logfields.Output(outputDir))
	})
	if p.runner.OutputDir == "" {
		return foundationerrors.ConfigError("no output path: set `output.path` in the plugin options or the build").Build()
	}
	return nil
}

func (p *StaticRender) triggerContext(ctx context.Context, trigger string) context.Context {
	ctx = observability.WithBuildID(ctx, uuid.NewString()[:8])
	return observability.WithTrigger(ctx, trigger)
}
