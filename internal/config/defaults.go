package config

import (
	"os"
	"path/filepath"
	"time"

	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

const (
	DefaultOutputPath = "dist"
	DefaultFilename   = "[name].js"
	DefaultDebounce   = 200 * time.Millisecond
)

// DefaultIgnoredDirs are skipped by the watcher unless Watch.Ignore is set.
var DefaultIgnoredDirs = []string{"node_modules", ".git"}

// applyDefaults fills unset fields. Relative build paths are resolved against
// baseDir, the directory holding the configuration file.
func applyDefaults(cfg *Config, baseDir string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve config directory").Build()
	}

	b := &cfg.Build
	if b.Context == "" {
		b.Context = absBase
	} else if !filepath.IsAbs(b.Context) {
		b.Context = filepath.Join(absBase, b.Context)
	}
	if b.Target == "" {
		b.Target = TargetWeb
	}
	if b.Output.Path == "" {
		b.Output.Path = DefaultOutputPath
	}
	if !filepath.IsAbs(b.Output.Path) {
		b.Output.Path = filepath.Join(b.Context, b.Output.Path)
	}
	if b.Output.Filename == "" {
		b.Output.Filename = DefaultFilename
	}

	sr := &cfg.StaticRender
	if sr.Output.Path != "" && !filepath.IsAbs(sr.Output.Path) {
		sr.Output.Path = filepath.Join(b.Context, sr.Output.Path)
	}
	if sr.EnvMode == "" {
		sr.EnvMode = os.Getenv("NODE_ENV")
	}
	if sr.EnvMode == "" {
		sr.EnvMode = b.Mode
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}

	w := &cfg.Watch
	if len(w.Paths) == 0 {
		w.Paths = []string{b.Context}
	}
	for i, p := range w.Paths {
		if !filepath.IsAbs(p) {
			w.Paths[i] = filepath.Join(b.Context, p)
		}
	}
	if w.Debounce == "" {
		w.Debounce = DefaultDebounce.String()
	}
	if w.Ignore == nil {
		w.Ignore = append([]string(nil), DefaultIgnoredDirs...)
	}
	return nil
}
