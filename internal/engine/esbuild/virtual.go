package esbuild

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	virtualPrefix    = "staticrender-entry:"
	virtualNamespace = "staticrender-entry"
)

// virtualEntryPlugin serves one synthetic module per multi-path entry. Each
// module requires every path in order and re-exports the last one.
func virtualEntryPlugin(entries map[string][]string, resolveDir string) api.Plugin {
	return api.Plugin{
		Name: "staticrender-virtual-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(virtualPrefix)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, virtualPrefix),
						Namespace: virtualNamespace,
					}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: virtualNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					paths, ok := entries[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unknown entry %q", args.Path)
					}
					contents := shimSource(paths)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: resolveDir,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

func shimSource(paths []string) string {
	var b strings.Builder
	last := len(paths) - 1
	for i, p := range paths {
		if i == last {
			fmt.Fprintf(&b, "module.exports = require(%s);\n", strconv.Quote(p))
			continue
		}
		fmt.Fprintf(&b, "require(%s);\n", strconv.Quote(p))
	}
	return b.String()
}
