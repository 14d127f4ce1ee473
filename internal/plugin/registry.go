package plugin

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/staticrender/internal/hooks"
)

// Registry holds the plugins of one compiler in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	plugins map[string]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin with the same name already exists.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	metadata := plugin.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[metadata.Name]; exists {
		return fmt.Errorf("plugin %s already registered", metadata.Name)
	}

	r.plugins[metadata.Name] = plugin
	r.order = append(r.order, metadata.Name)
	return nil
}

// List returns all registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// ApplyAll initializes and applies every plugin in registration order.
// The first failure stops the pass.
func (r *Registry) ApplyAll(h *hooks.Hooks) error {
	for _, p := range r.List() {
		name := p.Metadata().Name
		if lc, ok := p.(PluginLifecycle); ok {
			if err := lc.Init(); err != nil {
				return NewPluginError(name, "init", err)
			}
		}
		if err := p.Apply(h); err != nil {
			return NewPluginError(name, "apply", err)
		}
	}
	return nil
}

// CleanupAll calls Cleanup on every plugin that has one, in reverse
// registration order, and returns the first error.
func (r *Registry) CleanupAll() error {
	plugins := r.List()
	var first error
	for i := len(plugins) - 1; i >= 0; i-- {
		lc, ok := plugins[i].(PluginLifecycle)
		if !ok {
			continue
		}
		if err := lc.Cleanup(); err != nil && first == nil {
			first = NewPluginError(plugins[i].Metadata().Name, "cleanup", err)
		}
	}
	return first
}
