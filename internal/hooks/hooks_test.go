package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/staticrender/internal/config"
)

func TestAsyncSeriesHookOrder(t *testing.T) {
	h := NewAsyncSeriesHook("run")
	var calls []string
	h.TapAsync("a", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		calls = append(calls, "a")
		done(nil)
	})
	h.TapAsync("b", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		// completes from another goroutine
		go func() {
			calls = append(calls, "b")
			done(nil)
		}()
	})

	require.NoError(t, h.Call(context.Background(), &config.BuildConfig{}))
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, []string{"a", "b"}, h.Taps())
}

func TestAsyncSeriesHookStopsOnError(t *testing.T) {
	h := NewAsyncSeriesHook("watchRun")
	boom := errors.New("boom")
	secondCalled := false
	h.TapAsync("first", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		done(boom)
	})
	h.TapAsync("second", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		secondCalled = true
		done(nil)
	})

	err := h.Call(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var tapErr *TapError
	require.ErrorAs(t, err, &tapErr)
	assert.Equal(t, "first", tapErr.Tap)
	assert.Equal(t, "watchRun", tapErr.Hook)
	assert.False(t, secondCalled)
}

func TestAsyncSeriesHookIgnoresRepeatedDone(t *testing.T) {
	h := NewAsyncSeriesHook("run")
	h.TapAsync("twice", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {
		done(nil)
		done(errors.New("late"))
	})
	finals := 0
	h.CallAsync(context.Background(), nil, func(err error) {
		finals++
		assert.NoError(t, err)
	})
	assert.Equal(t, 1, finals)
}

func TestAsyncSeriesHookPassesConfig(t *testing.T) {
	h := NewAsyncSeriesHook("run")
	cfg := &config.BuildConfig{Mode: "production"}
	var seen *config.BuildConfig
	h.TapAsync("p", func(ctx context.Context, c *config.BuildConfig, done func(error)) {
		seen = c
		done(nil)
	})
	require.NoError(t, h.Call(context.Background(), cfg))
	assert.Same(t, cfg, seen)
}

func TestAsyncSeriesHookCallHonoursContext(t *testing.T) {
	h := NewAsyncSeriesHook("run")
	h.TapAsync("never", func(ctx context.Context, cfg *config.BuildConfig, done func(error)) {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := h.Call(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmptyAsyncHook(t *testing.T) {
	require.NoError(t, NewAsyncSeriesHook("run").Call(context.Background(), nil))
}

func TestSyncHook(t *testing.T) {
	hs := New()
	var calls []string
	hs.WatchClose.Tap("a", func() { calls = append(calls, "a") })
	hs.WatchClose.Tap("b", func() { calls = append(calls, "b") })
	hs.WatchClose.Tap("nil", nil)

	hs.WatchClose.Call()
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, []string{"a", "b"}, hs.WatchClose.Taps())
	assert.Equal(t, "watchClose", hs.WatchClose.Name())
}
