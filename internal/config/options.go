package config

import (
	"sort"
)

// PageDescriptor describes one route to statically render.
type PageDescriptor struct {
	Path   string         `yaml:"path"`
	Locals map[string]any `yaml:"locals,omitempty"`
}

// OutputOptions overrides where rendered pages are written.
type OutputOptions struct {
	Path string `yaml:"path,omitempty"`
}

// Options configures the static render plugin. Pages is keyed by the output
// file stem: the page under "about" is written to <output>/about.html.
type Options struct {
	Pages       map[string]PageDescriptor `yaml:"pages"`
	Entry       *Entry                    `yaml:"entry,omitempty"`
	TargetEntry string                    `yaml:"target_entry,omitempty"`
	Output      OutputOptions             `yaml:"output,omitempty"`
	// SubBuild is merged over the derived sub-build configuration last.
	SubBuild *BuildConfig `yaml:"sub_build,omitempty"`
	// EnvMode is passed through to the bundle as process.env.NODE_ENV.
	EnvMode string `yaml:"env_mode,omitempty"`
	// Concurrency bounds parallel page renders; 0 renders all pages at once.
	Concurrency     int  `yaml:"concurrency,omitempty"`
	FailOnPageError bool `yaml:"fail_on_page_error,omitempty"`
}

// PageKeys returns the page keys sorted, for deterministic iteration.
func (o *Options) PageKeys() []string {
	keys := make([]string, 0, len(o.Pages))
	for k := range o.Pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DuplicateRoutes returns routes claimed by more than one page key, mapped to
// the sorted keys claiming them.
func (o *Options) DuplicateRoutes() map[string][]string {
	byRoute := make(map[string][]string)
	for _, key := range o.PageKeys() {
		p := o.Pages[key].Path
		if p == "" {
			continue
		}
		byRoute[p] = append(byRoute[p], key)
	}
	dups := make(map[string][]string)
	for route, keys := range byRoute {
		if len(keys) > 1 {
			dups[route] = keys
		}
	}
	return dups
}
