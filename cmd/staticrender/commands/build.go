package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/staticrender/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Mode string `name:"mode" help:"Override build.mode (development|production)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if b.Mode != "" {
		cfg.Build.Mode = b.Mode
		g.Logger.Info("Build mode overridden via CLI flag", "mode", b.Mode)
	}

	c, err := newCompiler(cfg, g.Logger, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	res, err := c.Run(ctx)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w.String())
	}
	fmt.Printf("Built %d %s and rendered %d %s in %s\n",
		len(res.OutputFiles), plural(len(res.OutputFiles), "file"),
		len(cfg.StaticRender.Pages), plural(len(cfg.StaticRender.Pages), "page"),
		time.Since(start).Round(time.Millisecond))
	return nil
}
