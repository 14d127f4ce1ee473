package subbuild

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"dario.cat/mergo"

	"git.home.luguber.info/inful/staticrender/internal/config"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

const (
	// EntryName is the single entry slot of every sub-build.
	EntryName = "file"
	// DevServerMarker identifies live-reload client paths injected by the
	// primary dev workflow.
	DevServerMarker = "webpack-dev-server"

	DefineStaticRender = "process.env.STATIC_RENDER"
	DefineNodeEnv      = "process.env.NODE_ENV"
)

// Derive computes the sub-build configuration. The primary configuration is
// never modified.
func Derive(primary *config.BuildConfig, opts config.Options, artifact Artifact, cwd string) (*config.BuildConfig, error) {
	input, err := SelectEntry(primary, opts)
	if err != nil {
		return nil, err
	}

	out := primary.Clone()
	if out == nil {
		out = &config.BuildConfig{}
	}

	out.Target = config.TargetNode
	out.Context = cwd
	out.Entry = config.NamedEntries().Add(EntryName, input...)
	out.Output.LibraryTarget = config.LibraryTargetCommonJS2
	out.Output.Path = filepath.Dir(artifact.Path)
	out.Output.Filename = filepath.Base(artifact.Path)
	out.Stats = config.Bool(false)
	out.Devtool = config.DevtoolNone
	out.Optimization.Minimize = config.Bool(false)
	out.Define = map[string]string{
		DefineStaticRender: "true",
		DefineNodeEnv:      nodeEnv(opts.EnvMode),
	}
	out.DevServer = nil
	out.Mode = ""

	if opts.SubBuild != nil {
		fragment := opts.SubBuild.Clone()
		// Entry forms do not merge field-wise; an override entry replaces the
		// selected one.
		if !fragment.Entry.IsZero() {
			out.Entry = fragment.Entry
		}
		fragment.Entry = nil
		if err := mergo.Merge(out, fragment, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "merge sub_build override").
				Fatal().
				UserAction().
				Build()
		}
	}
	return out, nil
}

// SelectEntry picks the entry paths the sub-build compiles. A single-path
// entry is used as is. For named entries, TargetEntry picks one by name;
// without it exactly one entry must exist. Dev-server client paths are
// removed from the selected list.
func SelectEntry(primary *config.BuildConfig, opts config.Options) ([]string, error) {
	source := opts.Entry
	if source.IsZero() && primary != nil {
		source = primary.Entry
	}
	if source.IsSingle() {
		return []string{source.Path}, nil
	}

	var candidates []string
	if source != nil {
		for _, name := range source.Keys() {
			if opts.TargetEntry == "" || name == opts.TargetEntry {
				candidates = append(candidates, name)
			}
		}
	}

	switch {
	case len(candidates) == 0 && opts.TargetEntry != "":
		return nil, foundationerrors.ConfigError(fmt.Sprintf("Cannot find the entry %s", opts.TargetEntry)).
			WithContext("entry", opts.TargetEntry).
			Build()
	case len(candidates) == 0:
		return nil, foundationerrors.ConfigError("At least one entry must be specified").Build()
	case len(candidates) > 1:
		return nil, foundationerrors.ConfigError("Please specify a unique target entry with `targetEntry`").
			WithContext("candidates", candidates).
			Build()
	}

	name := candidates[0]
	paths := FilterDevServer(source.Named[name])
	if len(paths) == 0 {
		return nil, foundationerrors.ConfigError(fmt.Sprintf("Entry %s has no paths besides dev-server clients", name)).
			WithContext("entry", name).
			Build()
	}
	return paths, nil
}

// FilterDevServer drops every path containing DevServerMarker, keeping the
// order of the rest.
func FilterDevServer(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.Contains(p, DevServerMarker) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// nodeEnv renders the NODE_ENV define: the JSON string of mode, or the
// undefined literal when no mode is set.
func nodeEnv(mode string) string {
	if mode == "" {
		return "undefined"
	}
	b, _ := json.Marshal(mode)
	return string(b)
}
