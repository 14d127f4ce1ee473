// Package observability carries per-trigger log context and the prefixed
// handler used for plugin diagnostics.
package observability

import (
	"context"
	"log/slog"
)

// PluginPrefix tags every diagnostic emitted by the static render plugin.
const PluginPrefix = "[StaticRenderPlugin]"

// LogContext holds structured logging context information.
type LogContext struct {
	BuildID string
	Trigger string
	Page    string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTrigger records which hook started the current work.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	lc := extractLogContext(ctx)
	lc.Trigger = trigger
	return context.WithValue(ctx, logContextKey, lc)
}

// WithPage adds the page key being rendered.
func WithPage(ctx context.Context, page string) context.Context {
	lc := extractLogContext(ctx)
	lc.Page = page
	return context.WithValue(ctx, logContextKey, lc)
}

// GetContext returns the structured log context from ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	var attrs []slog.Attr
	if lc.BuildID != "" {
		attrs = append(attrs, slog.String("build_id", lc.BuildID))
	}
	if lc.Trigger != "" {
		attrs = append(attrs, slog.String("trigger", lc.Trigger))
	}
	if lc.Page != "" {
		attrs = append(attrs, slog.String("page", lc.Page))
	}
	return attrs
}

// PrefixHandler prepends a fixed tag to every message and appends the
// LogContext found on the record's context.
type PrefixHandler struct {
	prefix string
	next   slog.Handler
}

// NewPrefixHandler wraps next.
func NewPrefixHandler(prefix string, next slog.Handler) *PrefixHandler {
	return &PrefixHandler{prefix: prefix, next: next}
}

func (h *PrefixHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *PrefixHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.prefix+" "+r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		return true
	})
	out.AddAttrs(getLogAttrs(ctx)...)
	return h.next.Handle(ctx, out)
}

func (h *PrefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrefixHandler{prefix: h.prefix, next: h.next.WithAttrs(attrs)}
}

func (h *PrefixHandler) WithGroup(name string) slog.Handler {
	return &PrefixHandler{prefix: h.prefix, next: h.next.WithGroup(name)}
}

// PluginLogger returns base (slog.Default when nil) with messages tagged by
// PluginPrefix.
func PluginLogger(base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if _, ok := base.Handler().(*PrefixHandler); ok {
		return base
	}
	return slog.New(NewPrefixHandler(PluginPrefix, base.Handler()))
}
