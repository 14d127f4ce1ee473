package config

// Library targets understood by the build engine adapter.
const (
	LibraryTargetCommonJS2 = "commonjs2"
	LibraryTargetCommonJS  = "commonjs"
	LibraryTargetModule    = "module"
	LibraryTargetVar       = "var"
)

// Execution targets.
const (
	TargetWeb  = "web"
	TargetNode = "node"
)

// DevtoolNone disables source maps.
const DevtoolNone = "none"

// BuildConfig describes one compilation: the primary client build, or the
// isolated sub-build derived from it. Pointer fields distinguish "unset" from
// an explicit false so override fragments can merge onto computed values.
type BuildConfig struct {
	Entry        *Entry             `yaml:"entry,omitempty"`
	Target       string             `yaml:"target,omitempty"`
	Context      string             `yaml:"context,omitempty"`
	Mode         string             `yaml:"mode,omitempty"`
	Output       OutputConfig       `yaml:"output,omitempty"`
	DevServer    map[string]any     `yaml:"dev_server,omitempty"`
	Stats        *bool              `yaml:"stats,omitempty"`
	Devtool      string             `yaml:"devtool,omitempty"`
	Optimization OptimizationConfig `yaml:"optimization,omitempty"`
	Define       map[string]string  `yaml:"define,omitempty"`
	External     []string           `yaml:"external,omitempty"`
	Loader       map[string]string  `yaml:"loader,omitempty"`
	JSX          string             `yaml:"jsx,omitempty"`
}

// OutputConfig controls where and how a compilation is emitted.
type OutputConfig struct {
	Path          string `yaml:"path,omitempty"`
	Filename      string `yaml:"filename,omitempty"`
	LibraryTarget string `yaml:"library_target,omitempty"`
	PublicPath    string `yaml:"public_path,omitempty"`
}

// OptimizationConfig holds output optimization switches.
type OptimizationConfig struct {
	Minimize *bool `yaml:"minimize,omitempty"`
}

// Clone returns a deep copy of c. Entry lists, maps and pointer flags are
// copied so derived configurations never alias the primary one.
func (c *BuildConfig) Clone() *BuildConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Entry = c.Entry.Clone()
	out.DevServer = cloneMap(c.DevServer)
	out.Stats = cloneBool(c.Stats)
	out.Optimization.Minimize = cloneBool(c.Optimization.Minimize)
	out.Define = cloneMap(c.Define)
	out.Loader = cloneMap(c.Loader)
	if c.External != nil {
		out.External = append([]string(nil), c.External...)
	}
	return &out
}

// Bool returns a pointer to b, for literal BuildConfig values.
func Bool(b bool) *bool { return &b }

// BoolValue dereferences p, returning def when p is nil.
func BoolValue(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
