package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultEntryName is the name given to an unnamed list entry, matching how
// the primary build tool treats `entry: [a, b]`.
const DefaultEntryName = "main"

// Entry is either a single path (Path) or a mapping of named entries, each an
// ordered list of paths. Names keeps the declaration order of the mapping.
type Entry struct {
	Path  string
	Names []string
	Named map[string][]string
}

// SinglePath returns an Entry holding one path.
func SinglePath(p string) *Entry {
	return &Entry{Path: p}
}

// NamedEntries returns an empty named Entry; populate it with Add.
func NamedEntries() *Entry {
	return &Entry{Named: map[string][]string{}}
}

// Add appends a named entry and returns e for chaining.
func (e *Entry) Add(name string, paths ...string) *Entry {
	if e.Named == nil {
		e.Named = map[string][]string{}
	}
	if _, exists := e.Named[name]; !exists {
		e.Names = append(e.Names, name)
	}
	e.Named[name] = paths
	return e
}

// IsSingle reports whether e is the single-path form.
func (e *Entry) IsSingle() bool {
	return e != nil && e.Named == nil && e.Path != ""
}

// IsZero reports whether e holds nothing.
func (e *Entry) IsZero() bool {
	return e == nil || (e.Path == "" && len(e.Named) == 0)
}

// Keys returns the named entry keys in declaration order. Names missing from
// the declaration order (entries built by hand) follow in sorted order.
func (e *Entry) Keys() []string {
	if e == nil || len(e.Named) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e.Named))
	seen := make(map[string]bool, len(e.Named))
	for _, name := range e.Names {
		if _, ok := e.Named[name]; ok && !seen[name] {
			keys = append(keys, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range e.Named {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := &Entry{Path: e.Path}
	if e.Names != nil {
		out.Names = append([]string(nil), e.Names...)
	}
	if e.Named != nil {
		out.Named = make(map[string][]string, len(e.Named))
		for k, v := range e.Named {
			out.Named[k] = append([]string(nil), v...)
		}
	}
	return out
}

// UnmarshalYAML accepts a scalar path, a sequence of paths (one entry named
// "main"), or a mapping of names to a path or a sequence of paths.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	*e = Entry{}
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&e.Path)
	case yaml.SequenceNode:
		var paths []string
		if err := node.Decode(&paths); err != nil {
			return err
		}
		e.Add(DefaultEntryName, paths...)
		return nil
	case yaml.MappingNode:
		e.Named = map[string][]string{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			paths, err := decodePaths(node.Content[i+1])
			if err != nil {
				return fmt.Errorf("entry %q: %w", name, err)
			}
			e.Add(name, paths...)
		}
		return nil
	default:
		return fmt.Errorf("line %d: entry must be a path, a list of paths or a mapping", node.Line)
	}
}

// MarshalYAML writes the single-path form as a scalar and named entries as an
// ordered mapping.
func (e *Entry) MarshalYAML() (any, error) {
	if e.IsSingle() {
		return e.Path, nil
	}
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range e.Keys() {
		var value yaml.Node
		if err := value.Encode(e.Named[name]); err != nil {
			return nil, err
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &value)
	}
	return m, nil
}

func decodePaths(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var paths []string
		err := node.Decode(&paths)
		return paths, err
	default:
		return nil, fmt.Errorf("line %d: expected a path or a list of paths", node.Line)
	}
}
