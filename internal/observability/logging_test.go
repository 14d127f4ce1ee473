package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogContextAccumulates(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithTrigger(ctx, "watchRun")
	ctx = WithPage(ctx, "about")

	assert.Equal(t, LogContext{BuildID: "b-1", Trigger: "watchRun", Page: "about"}, GetContext(ctx))
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestPluginLoggerPrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := PluginLogger(base).With(slog.String("route", "/about"))

	ctx := WithBuildID(context.Background(), "b-2")
	logger.InfoContext(ctx, "Statically rendered /about")

	out := buf.String()
	assert.Contains(t, out, `msg="[StaticRenderPlugin] Statically rendered /about"`)
	assert.Contains(t, out, "route=/about")
	assert.Contains(t, out, "build_id=b-2")
}

func TestPluginLoggerDoesNotDoublePrefix(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	logger := PluginLogger(PluginLogger(base))
	logger.Warn("Was expecting to have a `watchHook` to close")

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(PluginPrefix)))
}

func TestPluginLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	PluginLogger(base).Info("quiet")
	assert.Empty(t, buf.String())
}
