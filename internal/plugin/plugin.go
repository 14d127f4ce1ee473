// Package plugin provides the plugin system of the static render compiler.
// Plugins tap the compiler's lifecycle hooks when they are applied.
package plugin

import (
	"fmt"

	"git.home.luguber.info/inful/staticrender/internal/hooks"
)

// Plugin represents a compiler plugin with metadata and an apply step.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, type, capabilities).
	Metadata() PluginMetadata

	// Apply registers the plugin's handlers on the compiler hooks.
	Apply(h *hooks.Hooks) error
}

// PluginLifecycle extends Plugin with optional lifecycle hooks.
type PluginLifecycle interface {
	Plugin

	// Init is called once before the plugin is applied.
	Init() error

	// Cleanup is called when the compiler shuts down.
	Cleanup() error
}

// PluginMetadata describes a plugin's identity and capabilities.
type PluginMetadata struct {
	// Name is the unique plugin identifier (e.g., "StaticRenderPlugin").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	// Type identifies the plugin category.
	Type PluginType

	// Description provides a human-readable summary of the plugin's purpose.
	Description string

	// Capabilities lists optional features this plugin provides.
	Capabilities []PluginCapability
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Has reports whether the plugin declares capability c.
func (m PluginMetadata) Has(c PluginCapability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	return nil
}

// BasePlugin provides default implementations for plugin lifecycle methods.
// Plugins can embed this to avoid implementing optional methods.
type BasePlugin struct{}

// Init is a no-op default implementation.
func (b *BasePlugin) Init() error {
	return nil
}

// Cleanup is a no-op default implementation.
func (b *BasePlugin) Cleanup() error {
	return nil
}
