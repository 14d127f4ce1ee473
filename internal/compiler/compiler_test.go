package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
	"git.home.luguber.info/inful/staticrender/internal/hooks"
	"git.home.luguber.info/inful/staticrender/internal/plugin"
	"git.home.luguber.info/inful/staticrender/internal/testengine"
)

// recordingPlugin logs hook calls into a shared event list.
type recordingPlugin struct {
	plugin.BasePlugin
	mu     sync.Mutex
	events *[]string
	runErr error
}

func (p *recordingPlugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{Name: "recorder", Version: "v0.0.1", Type: plugin.PluginTypeEmit}
}

func (p *recordingPlugin) add(e string) {
	p.mu.Lock()
	*p.events = append(*p.events, e)
	p.mu.Unlock()
}

func (p *recordingPlugin) Apply(h *hooks.Hooks) error {
	h.Run.TapAsync("recorder", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		p.add("run")
		done(p.runErr)
	})
	h.WatchRun.TapAsync("recorder", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		p.add("watchRun")
		done(nil)
	})
	h.WatchClose.Tap("recorder", func() { p.add("watchClose") })
	return nil
}

func (p *recordingPlugin) Cleanup() error {
	p.add("cleanup")
	return nil
}

func (p *recordingPlugin) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), *p.events...)
}

func newTestCompiler(t *testing.T, watchDir string) (*Compiler, *testengine.Engine, *recordingPlugin) {
	t.Helper()
	var events []string
	rec := &recordingPlugin{events: &events}
	eng := testengine.New()
	eng.OnBuild = func(*config.BuildConfig) { rec.add("compile") }

	build := &config.BuildConfig{
		Entry:  config.SinglePath("./src/index.jsx"),
		Output: config.OutputConfig{Path: filepath.Join(t.TempDir(), "dist")},
	}
	c := New(build, config.WatchConfig{Paths: []string{watchDir}, Debounce: "20ms"}, eng, nil)
	require.NoError(t, c.Use(rec))
	return c, eng, rec
}

func TestRunCallsHookBeforeCompile(t *testing.T) {
	c, eng, rec := newTestCompiler(t, t.TempDir())

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []string{"run", "compile", "cleanup"}, rec.snapshot())
	assert.Len(t, eng.Runs(), 1)
}

func TestRunHookFailureSkipsCompile(t *testing.T) {
	c, eng, rec := newTestCompiler(t, t.TempDir())
	rec.runErr = errors.New("sub-build failed")

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sub-build failed")
	assert.Empty(t, eng.Runs())
}

func TestRunReportsCompileErrors(t *testing.T) {
	c, eng, _ := newTestCompiler(t, t.TempDir())
	eng.Result = &engine.Result{Errors: []engine.Message{{Text: "Could not resolve \"react\""}}}

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not resolve")
}

func TestUseRejectsDuplicates(t *testing.T) {
	c, _, rec := newTestCompiler(t, t.TempDir())
	require.Error(t, c.Use(rec))
	assert.Len(t, c.Plugins(), 1)
}

func TestRunWatchRecompilesOnChange(t *testing.T) {
	dir := t.TempDir()
	c, eng, rec := newTestCompiler(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.RunWatch(ctx) }()

	require.Eventually(t, func() bool { return len(eng.Runs()) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "index.jsx"), []byte("export default 1\n"), 0o600)
		return len(eng.Runs()) >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunWatch did not stop")
	}

	events := rec.snapshot()
	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, []string{"watchRun", "compile", "watchRun", "compile"}, events[:4])
	assert.Equal(t, []string{"watchClose", "cleanup"}, events[len(events)-2:])
}

func TestRunWatchMissingPath(t *testing.T) {
	c, _, _ := newTestCompiler(t, filepath.Join(t.TempDir(), "missing"))
	err := c.RunWatch(context.Background())
	require.Error(t, err)
}
