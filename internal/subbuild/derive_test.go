package subbuild

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/staticrender/internal/config"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

var testArtifact = Artifact{ID: "x", Dir: "/tmp/staticrender-x", Path: "/tmp/staticrender-x/bundle.js"}

func primaryConfig() *config.BuildConfig {
	return &config.BuildConfig{
		Entry:  config.NamedEntries().Add("main", "webpack-dev-server/client?http://localhost:8080", "./src/index.jsx"),
		Target: config.TargetWeb,
		Mode:   "development",
		Output: config.OutputConfig{
			Path:       "/project/dist",
			Filename:   "[name].[contenthash].js",
			PublicPath: "/static/",
		},
		DevServer:    map[string]any{"port": 8080, "hot": true},
		Devtool:      "eval-source-map",
		Stats:        config.Bool(true),
		Optimization: config.OptimizationConfig{Minimize: config.Bool(true)},
		Define:       map[string]string{"__CLIENT__": "true"},
		External:     []string{"fsevents"},
		JSX:          "automatic",
	}
}

func pagesOnly() config.Options {
	return config.Options{Pages: map[string]config.PageDescriptor{"home": {Path: "/"}}, EnvMode: "production"}
}

func TestDeriveServerBundle(t *testing.T) {
	primary := primaryConfig()
	cfg, err := Derive(primary, pagesOnly(), testArtifact, "/work")
	require.NoError(t, err)

	assert.Equal(t, config.TargetNode, cfg.Target)
	assert.Equal(t, "/work", cfg.Context)
	assert.Equal(t, []string{EntryName}, cfg.Entry.Keys())
	assert.Equal(t, []string{"./src/index.jsx"}, cfg.Entry.Named[EntryName])
	assert.Equal(t, config.OutputConfig{
		Path:          "/tmp/staticrender-x",
		Filename:      "bundle.js",
		LibraryTarget: config.LibraryTargetCommonJS2,
		PublicPath:    "/static/",
	}, cfg.Output)
	assert.False(t, config.BoolValue(cfg.Stats, true))
	assert.Equal(t, config.DevtoolNone, cfg.Devtool)
	assert.False(t, config.BoolValue(cfg.Optimization.Minimize, true))
	assert.Equal(t, map[string]string{
		DefineStaticRender: "true",
		DefineNodeEnv:      `"production"`,
	}, cfg.Define)
	assert.Nil(t, cfg.DevServer)
	assert.Empty(t, cfg.Mode)
	assert.Equal(t, []string{"fsevents"}, cfg.External)
	assert.Equal(t, "automatic", cfg.JSX)
}

func TestDeriveDoesNotMutatePrimary(t *testing.T) {
	primary := primaryConfig()
	_, err := Derive(primary, pagesOnly(), testArtifact, "/work")
	require.NoError(t, err)

	assert.Equal(t, primaryConfig(), primary)
}

func TestDeriveNodeEnvUndefinedWithoutMode(t *testing.T) {
	opts := pagesOnly()
	opts.EnvMode = ""
	cfg, err := Derive(primaryConfig(), opts, testArtifact, "/work")
	require.NoError(t, err)
	assert.Equal(t, "undefined", cfg.Define[DefineNodeEnv])
}

func TestDeriveSingleEntryUsedDirectly(t *testing.T) {
	primary := primaryConfig()
	primary.Entry = config.SinglePath("./src/webpack-dev-server-free.js")
	cfg, err := Derive(primary, pagesOnly(), testArtifact, "/work")
	require.NoError(t, err)
	assert.Equal(t, []string{"./src/webpack-dev-server-free.js"}, cfg.Entry.Named[EntryName])
}

func TestDeriveOptionsEntryTakesPrecedence(t *testing.T) {
	opts := pagesOnly()
	opts.Entry = config.SinglePath("./src/static.jsx")
	cfg, err := Derive(primaryConfig(), opts, testArtifact, "/work")
	require.NoError(t, err)
	assert.Equal(t, []string{"./src/static.jsx"}, cfg.Entry.Named[EntryName])
}

func TestDeriveEntrySelection(t *testing.T) {
	tests := []struct {
		name    string
		entry   *config.Entry
		target  string
		want    []string
		wantErr string
	}{
		{
			name:  "single named entry without target",
			entry: config.NamedEntries().Add("main", "./a.js"),
			want:  []string{"./a.js"},
		},
		{
			name:    "several entries without target",
			entry:   config.NamedEntries().Add("main", "./a.js").Add("admin", "./b.js"),
			wantErr: "Please specify a unique target entry with `targetEntry`",
		},
		{
			name:   "target picks one of several",
			entry:  config.NamedEntries().Add("main", "./a.js").Add("admin", "./b.js"),
			target: "admin",
			want:   []string{"./b.js"},
		},
		{
			name:    "target names a missing entry",
			entry:   config.NamedEntries().Add("main", "./a.js"),
			target:  "ssr",
			wantErr: "Cannot find the entry ssr",
		},
		{
			name:    "no entries at all",
			entry:   config.NamedEntries(),
			wantErr: "At least one entry must be specified",
		},
		{
			name:    "only dev-server paths",
			entry:   config.NamedEntries().Add("main", "webpack-dev-server/client"),
			wantErr: "no paths besides dev-server clients",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := primaryConfig()
			primary.Entry = tt.entry
			opts := pagesOnly()
			opts.TargetEntry = tt.target

			cfg, err := Derive(primary, opts, testArtifact, "/work")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Entry.Named[EntryName])
		})
	}
}

func TestFilterDevServerKeepsOrder(t *testing.T) {
	in := []string{
		"./polyfills.js",
		"webpack-dev-server/client?http://0.0.0.0:3000",
		"./src/index.js",
		"./src/extra.js",
	}
	assert.Equal(t, []string{"./polyfills.js", "./src/index.js", "./src/extra.js"}, FilterDevServer(in))
}

func TestDeriveOverrideWinsLast(t *testing.T) {
	opts := pagesOnly()
	opts.SubBuild = &config.BuildConfig{
		Target:       config.TargetWeb,
		Devtool:      "inline-source-map",
		Stats:        config.Bool(true),
		Optimization: config.OptimizationConfig{Minimize: config.Bool(true)},
		Output:       config.OutputConfig{Filename: "server.js"},
		Define:       map[string]string{"__SERVER__": "true", DefineStaticRender: "false"},
		External:     []string{"react", "react-dom"},
	}

	cfg, err := Derive(primaryConfig(), opts, testArtifact, "/work")
	require.NoError(t, err)

	assert.Equal(t, config.TargetWeb, cfg.Target)
	assert.Equal(t, "inline-source-map", cfg.Devtool)
	assert.True(t, config.BoolValue(cfg.Stats, false))
	assert.True(t, config.BoolValue(cfg.Optimization.Minimize, false))
	assert.Equal(t, "server.js", cfg.Output.Filename)
	assert.Equal(t, "/tmp/staticrender-x", cfg.Output.Path)
	assert.Equal(t, config.LibraryTargetCommonJS2, cfg.Output.LibraryTarget)
	assert.Equal(t, map[string]string{
		DefineStaticRender: "false",
		DefineNodeEnv:      `"production"`,
		"__SERVER__":       "true",
	}, cfg.Define)
	assert.Equal(t, []string{"react", "react-dom"}, cfg.External)
}

func TestDeriveOverrideFalseReplacesTrue(t *testing.T) {
	opts := pagesOnly()
	opts.SubBuild = &config.BuildConfig{Stats: config.Bool(false)}
	primary := primaryConfig()

	cfg, err := Derive(primary, opts, testArtifact, "/work")
	require.NoError(t, err)
	assert.False(t, *cfg.Stats)

	// The override fragment itself is never aliased by the result.
	*cfg.Stats = true
	assert.False(t, *opts.SubBuild.Stats)
}

func TestDeriveOverrideReplacesEntry(t *testing.T) {
	t.Run("single path", func(t *testing.T) {
		opts := pagesOnly()
		opts.SubBuild = &config.BuildConfig{Entry: config.SinglePath("./src/server.jsx")}

		cfg, err := Derive(primaryConfig(), opts, testArtifact, "/work")
		require.NoError(t, err)
		require.True(t, cfg.Entry.IsSingle())
		assert.Equal(t, "./src/server.jsx", cfg.Entry.Path)
		assert.Nil(t, cfg.Entry.Named)
	})

	t.Run("named", func(t *testing.T) {
		opts := pagesOnly()
		opts.SubBuild = &config.BuildConfig{Entry: config.NamedEntries().Add("server", "./src/polyfill.js", "./src/server.jsx")}

		cfg, err := Derive(primaryConfig(), opts, testArtifact, "/work")
		require.NoError(t, err)
		assert.Equal(t, []string{"server"}, cfg.Entry.Keys())
		assert.Equal(t, []string{"./src/polyfill.js", "./src/server.jsx"}, cfg.Entry.Named["server"])

		cfg.Entry.Named["server"][0] = "changed"
		assert.Equal(t, "./src/polyfill.js", opts.SubBuild.Entry.Named["server"][0])
	})

	t.Run("absent keeps selected entry", func(t *testing.T) {
		opts := pagesOnly()
		opts.SubBuild = &config.BuildConfig{Devtool: "source-map"}

		cfg, err := Derive(primaryConfig(), opts, testArtifact, "/work")
		require.NoError(t, err)
		assert.Equal(t, []string{"./src/index.jsx"}, cfg.Entry.Named[EntryName])
	})
}

func TestNewArtifactIsUnique(t *testing.T) {
	base := t.TempDir()
	a, err := newArtifactIn(base)
	require.NoError(t, err)
	b, err := newArtifactIn(base)
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
	assert.Equal(t, filepath.Join(a.Dir, "bundle.js"), a.Path)
	assert.DirExists(t, a.Dir)
	assert.Contains(t, filepath.Base(a.Dir), "staticrender-"+a.ID)
}
