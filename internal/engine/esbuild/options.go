package esbuild

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
)

const nodeEnvDefine = "process.env.NODE_ENV"

var loaders = map[string]api.Loader{
	"js":      api.LoaderJS,
	"jsx":     api.LoaderJSX,
	"ts":      api.LoaderTS,
	"tsx":     api.LoaderTSX,
	"json":    api.LoaderJSON,
	"css":     api.LoaderCSS,
	"text":    api.LoaderText,
	"file":    api.LoaderFile,
	"dataurl": api.LoaderDataURL,
	"base64":  api.LoaderBase64,
	"binary":  api.LoaderBinary,
	"empty":   api.LoaderEmpty,
	"copy":    api.LoaderCopy,
}

var jsxModes = map[string]api.JSX{
	"":          api.JSXAutomatic,
	"automatic": api.JSXAutomatic,
	"transform": api.JSXTransform,
	"classic":   api.JSXTransform,
	"preserve":  api.JSXPreserve,
}

// buildOptions maps cfg onto esbuild options. The returned options always
// bundle and keep outputs in memory so the engine can report and write them;
// diagnostics are returned, not printed.
func buildOptions(cfg *config.BuildConfig) (api.BuildOptions, error) {
	if cfg == nil {
		return api.BuildOptions{}, fmt.Errorf("%w: nil configuration", engine.ErrInvalidConfig)
	}
	if cfg.Entry.IsZero() {
		return api.BuildOptions{}, fmt.Errorf("%w: no entry", engine.ErrInvalidConfig)
	}

	workDir := cfg.Context
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return api.BuildOptions{}, err
		}
		workDir = wd
	}
	if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return api.BuildOptions{}, err
		}
		workDir = abs
	}

	opts := api.BuildOptions{
		AbsWorkingDir: workDir,
		Bundle:        true,
		Write:         false,
		LogLevel:      api.LogLevelSilent,
		Platform:      platform(cfg.Target),
		Define:        defines(cfg),
		External:      cfg.External,
		PublicPath:    cfg.Output.PublicPath,
		Sourcemap:     sourceMap(cfg.Devtool),
	}

	format, err := format(cfg)
	if err != nil {
		return api.BuildOptions{}, err
	}
	opts.Format = format

	minify := config.BoolValue(cfg.Optimization.Minimize, cfg.Mode == "production")
	opts.MinifyWhitespace = minify
	opts.MinifyIdentifiers = minify
	opts.MinifySyntax = minify

	jsx, ok := jsxModes[strings.ToLower(cfg.JSX)]
	if !ok {
		return api.BuildOptions{}, fmt.Errorf("%w: unknown jsx mode %q", engine.ErrInvalidConfig, cfg.JSX)
	}
	opts.JSX = jsx

	if len(cfg.Loader) > 0 {
		opts.Loader = make(map[string]api.Loader, len(cfg.Loader))
		for ext, name := range cfg.Loader {
			l, ok := loaders[strings.ToLower(name)]
			if !ok {
				return api.BuildOptions{}, fmt.Errorf("%w: unknown loader %q for %s", engine.ErrInvalidConfig, name, ext)
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			opts.Loader[ext] = l
		}
	}

	outDir := cfg.Output.Path
	if outDir == "" {
		outDir = filepath.Join(workDir, config.DefaultOutputPath)
	} else if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(workDir, outDir)
	}
	filename := cfg.Output.Filename
	if filename == "" {
		filename = config.DefaultFilename
	}

	if err := entryPoints(&opts, cfg.Entry, outDir, filename); err != nil {
		return api.BuildOptions{}, err
	}
	return opts, nil
}

func entryPoints(opts *api.BuildOptions, entry *config.Entry, outDir, filename string) error {
	templated := strings.Contains(filename, "[name]")
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if entry.IsSingle() {
		opts.EntryPoints = []string{entry.Path}
		if templated {
			opts.Outdir = outDir
			opts.EntryNames = stem
		} else {
			opts.Outfile = filepath.Join(outDir, filename)
		}
		return nil
	}

	keys := entry.Keys()
	if len(keys) > 1 && !templated {
		return fmt.Errorf("%w: %d entries would all be written to %s; use [name] in output.filename",
			engine.ErrInvalidConfig, len(keys), filename)
	}

	opts.Outdir = outDir
	var virtual map[string][]string
	for _, name := range keys {
		paths := entry.Named[name]
		out := strings.ReplaceAll(stem, "[name]", name)
		switch len(paths) {
		case 0:
			return fmt.Errorf("%w: entry %q has no paths", engine.ErrInvalidConfig, name)
		case 1:
			opts.EntryPointsAdvanced = append(opts.EntryPointsAdvanced, api.EntryPoint{InputPath: paths[0], OutputPath: out})
		default:
			if virtual == nil {
				virtual = make(map[string][]string)
			}
			virtual[name] = paths
			opts.EntryPointsAdvanced = append(opts.EntryPointsAdvanced, api.EntryPoint{InputPath: virtualPrefix + name, OutputPath: out})
		}
	}
	if virtual != nil {
		opts.Plugins = append(opts.Plugins, virtualEntryPlugin(virtual, opts.AbsWorkingDir))
	}
	return nil
}

func platform(target string) api.Platform {
	if target == config.TargetNode {
		return api.PlatformNode
	}
	return api.PlatformBrowser
}

func format(cfg *config.BuildConfig) (api.Format, error) {
	switch cfg.Output.LibraryTarget {
	case config.LibraryTargetCommonJS, config.LibraryTargetCommonJS2:
		return api.FormatCommonJS, nil
	case config.LibraryTargetModule:
		return api.FormatESModule, nil
	case config.LibraryTargetVar:
		return api.FormatIIFE, nil
	case "":
		if cfg.Target == config.TargetNode {
			return api.FormatCommonJS, nil
		}
		return api.FormatIIFE, nil
	default:
		return api.FormatDefault, fmt.Errorf("%w: unknown library target %q", engine.ErrInvalidConfig, cfg.Output.LibraryTarget)
	}
}

func sourceMap(devtool string) api.SourceMap {
	d := strings.ToLower(strings.TrimSpace(devtool))
	switch {
	case d == "" || d == config.DevtoolNone || d == "false":
		return api.SourceMapNone
	case strings.Contains(d, "inline"):
		return api.SourceMapInline
	case strings.HasPrefix(d, "hidden"):
		return api.SourceMapExternal
	default:
		return api.SourceMapLinked
	}
}

// defines copies cfg.Define and, as the primary build tool does for its
// mode, defines process.env.NODE_ENV from Mode unless already set.
func defines(cfg *config.BuildConfig) map[string]string {
	out := make(map[string]string, len(cfg.Define)+1)
	for k, v := range cfg.Define {
		out[k] = v
	}
	if _, ok := out[nodeEnvDefine]; !ok && cfg.Mode != "" {
		mode, _ := json.Marshal(cfg.Mode)
		out[nodeEnvDefine] = string(mode)
	}
	return out
}
