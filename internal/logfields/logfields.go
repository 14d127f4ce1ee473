package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTrigger    = "trigger"
	KeyPage       = "page"
	KeyRoute      = "route"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyArtifact   = "artifact"
	KeyEntry      = "entry"
	KeyPages      = "pages"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Trigger(name string) slog.Attr   { return slog.String(KeyTrigger, name) }
func Page(key string) slog.Attr       { return slog.String(KeyPage, key) }
func Route(route string) slog.Attr    { return slog.String(KeyRoute, route) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Artifact(p string) slog.Attr     { return slog.String(KeyArtifact, p) }
func Entry(name string) slog.Attr     { return slog.String(KeyEntry, name) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
