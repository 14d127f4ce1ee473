package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/staticrender/internal/compiler"
	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine/esbuild"
	"git.home.luguber.info/inful/staticrender/internal/loader/node"
	"git.home.luguber.info/inful/staticrender/internal/metrics"
	"git.home.luguber.info/inful/staticrender/internal/plugin"
)

// EnvLogLevel overrides the log level when --verbose is not given.
const EnvLogLevel = "STATICRENDER_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"staticrender.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd   `cmd:"" help:"Build the client bundle and render all pages once"`
	Watch      WatchCmd   `cmd:"" help:"Rebuild the bundle and re-render pages when sources change"`
	Init       InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(os.Stderr, config.LoggingConfig{
		Level:  config.NormalizeLogLevel(os.Getenv(EnvLogLevel)),
		Format: config.LogFormatText,
	}, c.Verbose)
	slog.SetDefault(g.Logger)
	return nil
}

// newLogger builds the process logger. --verbose always wins over the
// configured level.
func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := config.NormalizeLogLevel(string(lc.Level)).SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(string(lc.Format)) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig reads the configuration and applies its logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if os.Getenv(EnvLogLevel) == "" || root.Verbose {
		g.Logger = newLogger(os.Stderr, cfg.Logging, root.Verbose)
		slog.SetDefault(g.Logger)
	}
	return cfg, nil
}

// newCompiler wires the esbuild engine, the Node loader and the static render
// plugin into a compiler for cfg.
func newCompiler(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*compiler.Compiler, error) {
	eng := esbuild.New(logger)

	loader := node.New(logger)
	loader.Dir = cfg.Build.Context
	if !loader.Available() {
		logger.Warn("node was not found on PATH; pages cannot be rendered")
	}

	buildDir := cfg.Build.Context
	sr, err := plugin.NewStaticRender(cfg.StaticRender, plugin.StaticRenderDeps{
		Engine:   eng,
		Loader:   loader,
		Logger:   logger,
		Recorder: recorder,
		Getwd:    func() (string, error) { return buildDir, nil },
	})
	if err != nil {
		return nil, err
	}

	c := compiler.New(&cfg.Build, cfg.Watch, eng, logger)
	if p := cfg.StaticRender.Output.Path; p != "" {
		c.ExtraIgnore = append(c.ExtraIgnore, p)
	}
	if err := c.Use(sr); err != nil {
		return nil, err
	}
	return c, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
