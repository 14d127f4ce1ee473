package esbuild

import (
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
)

func TestBuildOptionsServerBundle(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.BuildConfig{
		Entry:   config.NamedEntries().Add("file", "./src/static.jsx"),
		Target:  config.TargetNode,
		Context: dir,
		Output: config.OutputConfig{
			Path:          filepath.Join(dir, "tmp"),
			Filename:      "bundle.js",
			LibraryTarget: config.LibraryTargetCommonJS2,
		},
		Stats:        config.Bool(false),
		Devtool:      config.DevtoolNone,
		Optimization: config.OptimizationConfig{Minimize: config.Bool(false)},
		Define:       map[string]string{"process.env.STATIC_RENDER": "true"},
	}

	opts, err := buildOptions(cfg)
	require.NoError(t, err)

	assert.Equal(t, api.PlatformNode, opts.Platform)
	assert.Equal(t, api.FormatCommonJS, opts.Format)
	assert.Equal(t, api.SourceMapNone, opts.Sourcemap)
	assert.False(t, opts.MinifyWhitespace)
	assert.False(t, opts.MinifySyntax)
	assert.False(t, opts.MinifyIdentifiers)
	assert.True(t, opts.Bundle)
	assert.Equal(t, dir, opts.AbsWorkingDir)
	assert.Equal(t, filepath.Join(dir, "tmp"), opts.Outdir)
	assert.Equal(t, []api.EntryPoint{{InputPath: "./src/static.jsx", OutputPath: "bundle"}}, opts.EntryPointsAdvanced)
	assert.Equal(t, map[string]string{"process.env.STATIC_RENDER": "true"}, opts.Define)
	assert.Empty(t, opts.Plugins)
}

func TestBuildOptionsProductionDefaults(t *testing.T) {
	cfg := &config.BuildConfig{
		Entry:   config.SinglePath("./src/index.js"),
		Context: t.TempDir(),
		Mode:    "production",
		Output:  config.OutputConfig{Path: "dist", Filename: "[name].js"},
		Devtool: "source-map",
	}
	opts, err := buildOptions(cfg)
	require.NoError(t, err)

	assert.Equal(t, api.PlatformBrowser, opts.Platform)
	assert.Equal(t, api.FormatIIFE, opts.Format)
	assert.Equal(t, api.SourceMapLinked, opts.Sourcemap)
	assert.True(t, opts.MinifyWhitespace)
	assert.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	assert.Equal(t, []string{"./src/index.js"}, opts.EntryPoints)
	assert.Equal(t, filepath.Join(cfg.Context, "dist"), opts.Outdir)
	assert.Equal(t, "[name]", opts.EntryNames)
}

func TestBuildOptionsExplicitNodeEnvWins(t *testing.T) {
	cfg := &config.BuildConfig{
		Entry:   config.SinglePath("./a.js"),
		Context: t.TempDir(),
		Mode:    "production",
		Define:  map[string]string{"process.env.NODE_ENV": `"test"`},
	}
	opts, err := buildOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, `"test"`, opts.Define["process.env.NODE_ENV"])
}

func TestBuildOptionsMultiPathEntryUsesVirtualModule(t *testing.T) {
	cfg := &config.BuildConfig{
		Entry: config.NamedEntries().
			Add("main", "./polyfill.js", "./src/index.js").
			Add("admin", "./src/admin.js"),
		Context: t.TempDir(),
		Output:  config.OutputConfig{Filename: "js/[name].js"},
	}
	opts, err := buildOptions(cfg)
	require.NoError(t, err)

	require.Len(t, opts.EntryPointsAdvanced, 2)
	assert.Equal(t, api.EntryPoint{InputPath: virtualPrefix + "main", OutputPath: "js/main"}, opts.EntryPointsAdvanced[0])
	assert.Equal(t, api.EntryPoint{InputPath: "./src/admin.js", OutputPath: "js/admin"}, opts.EntryPointsAdvanced[1])
	require.Len(t, opts.Plugins, 1)
}

func TestBuildOptionsErrors(t *testing.T) {
	base := func() *config.BuildConfig {
		return &config.BuildConfig{Entry: config.SinglePath("./a.js"), Context: t.TempDir()}
	}

	tests := []struct {
		name   string
		mutate func(*config.BuildConfig)
		want   string
	}{
		{"no entry", func(c *config.BuildConfig) { c.Entry = nil }, "no entry"},
		{"many entries one file", func(c *config.BuildConfig) {
			c.Entry = config.NamedEntries().Add("a", "./a.js").Add("b", "./b.js")
			c.Output.Filename = "bundle.js"
		}, "use [name]"},
		{"unknown loader", func(c *config.BuildConfig) { c.Loader = map[string]string{".svg": "svgr"} }, `unknown loader "svgr"`},
		{"unknown jsx", func(c *config.BuildConfig) { c.JSX = "solid" }, `unknown jsx mode "solid"`},
		{"unknown library target", func(c *config.BuildConfig) { c.Output.LibraryTarget = "amd" }, `unknown library target "amd"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			_, err := buildOptions(cfg)
			require.Error(t, err)
			require.ErrorIs(t, err, engine.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoaderExtensionsAreDotted(t *testing.T) {
	cfg := &config.BuildConfig{
		Entry:   config.SinglePath("./a.js"),
		Context: t.TempDir(),
		Loader:  map[string]string{"svg": "dataurl", ".txt": "text"},
	}
	opts, err := buildOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, map[string]api.Loader{".svg": api.LoaderDataURL, ".txt": api.LoaderText}, opts.Loader)
}

func TestShimSource(t *testing.T) {
	assert.Equal(t,
		"require(\"webpack/hot/poll\");\nmodule.exports = require(\"./src/index.js\");\n",
		shimSource([]string{"webpack/hot/poll", "./src/index.js"}))
}
