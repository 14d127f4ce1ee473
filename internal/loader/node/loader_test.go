package node

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/staticrender/internal/config"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/render"
	"git.home.luguber.info/inful/staticrender/internal/retry"
)

const fakeBundle = `
const React = { createElement: (type, props) => ({ type, props }) };
exports.default = {
  rootId: "root",
  React,
  StaticRouter: "StaticRouter",
  routerToComponent: (Router) => Promise.resolve(Router({})),
  ReactDOM: {
    renderToString: (el) =>
      "<h1>" + el.props.location + ":" + (el.props.context.title || "") + "</h1>",
  },
};
`

func requireNode(t *testing.T) *Loader {
	t.Helper()
	l := New(nil)
	l.StartTimeout = 10 * time.Second
	if !l.Available() {
		t.Skip("node not installed")
	}
	return l
}

func writeBundle(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestLoadRendersWithNode(t *testing.T) {
	l := requireNode(t)
	ctx := context.Background()

	m, err := l.Load(ctx, writeBundle(t, fakeBundle))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	assert.Equal(t, "root", m.RootID)

	p := render.NewPipeline(t.TempDir())
	res := p.RenderPage(ctx, m, "home", config.PageDescriptor{Path: "/", Locals: map[string]any{"title": "Home"}})
	require.NoError(t, res.Err)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, `<div id="root"><h1>/:Home</h1></div>`, string(data))
}

func TestLoadMissingExports(t *testing.T) {
	l := requireNode(t)
	_, err := l.Load(context.Background(), writeBundle(t, `exports.default = { rootId: "x" };`))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRender))
	assert.Contains(t, err.Error(), "routerToComponent")
}

func TestLoadCrashingArtifact(t *testing.T) {
	l := requireNode(t)
	_, err := l.Load(context.Background(), writeBundle(t, `throw new Error("bad bundle");`))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRuntime))
}

func TestLoadMissingArtifact(t *testing.T) {
	l := New(nil)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound))
}

func TestCloseStopsProcess(t *testing.T) {
	l := requireNode(t)
	m, err := l.Load(context.Background(), writeBundle(t, fakeBundle))
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.Renderer.RenderToString(context.Background(), Element{
		Type:  staticRouter,
		Props: render.Props{"location": "/"},
	})
	require.Error(t, err)
}

func TestLoadRetriesStartTimeout(t *testing.T) {
	dir := t.TempDir()
	count := filepath.Join(dir, "starts")
	script := filepath.Join(dir, "slow-node")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho start >> \"$STARTS_FILE\"\nexec sleep 5\n"), 0o700))
	t.Setenv("STARTS_FILE", count)

	policy := retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 1)
	l := &Loader{Binary: script, StartTimeout: 100 * time.Millisecond, Retry: &policy}

	_, err := l.Load(context.Background(), writeBundle(t, fakeBundle))
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRuntime))
	assert.ErrorIs(t, err, errStartTimeout)

	data, err := os.ReadFile(count)
	require.NoError(t, err)
	assert.Equal(t, "start\nstart\n", string(data))
}
