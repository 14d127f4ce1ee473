package render

import (
	"context"
)

// Element is an opaque node of the module's UI tree.
type Element any

// Props are the properties passed to a component.
type Props map[string]any

// Component produces an element from props.
type Component func(props Props) Element

// Deferred is an element that is only available asynchronously. The
// pipeline awaits it before rendering.
type Deferred interface {
	Await(ctx context.Context) (Element, error)
}

// Bindings exposes the module's UI library.
type Bindings struct {
	CreateElement func(typ any, props Props) Element
}

// StringRenderer renders a resolved element tree to markup.
type StringRenderer interface {
	RenderToString(ctx context.Context, el Element) (string, error)
}

// StringRendererFunc adapts a function to StringRenderer.
type StringRendererFunc func(ctx context.Context, el Element) (string, error)

func (f StringRendererFunc) RenderToString(ctx context.Context, el Element) (string, error) {
	return f(ctx, el)
}

// Module is the render-capable record exported by a sub-build artifact.
type Module struct {
	// RootID is the id of the element the client app hydrates into.
	RootID string
	// Bindings is the UI library used to build the router wrapper.
	Bindings Bindings
	// StaticRouter is the element type of the server-side router.
	StaticRouter any
	// RouterToElement builds the application's root element around router.
	RouterToElement func(ctx context.Context, router Component) (Element, error)
	// Renderer renders elements to markup.
	Renderer StringRenderer
	// Closer releases resources held by the module, if any.
	Closer func() error
}

// Close releases the module.
func (m *Module) Close() error {
	if m == nil || m.Closer == nil {
		return nil
	}
	return m.Closer()
}

// Router returns the wrapper component for one page. It creates the static
// router element with location fixed to path (or "/") and locals as its
// context, passing any other props through.
func (m *Module) Router(path string, locals map[string]any) Component {
	if path == "" {
		path = "/"
	}
	if locals == nil {
		locals = map[string]any{}
	}
	return func(props Props) Element {
		merged := make(Props, len(props)+2)
		for k, v := range props {
			merged[k] = v
		}
		merged["location"] = path
		merged["context"] = locals
		return m.Bindings.CreateElement(m.StaticRouter, merged)
	}
}

func (m *Module) validate() error {
	switch {
	case m == nil:
		return errModule("module is nil")
	case m.RouterToElement == nil:
		return errModule("module does not export routerToComponent")
	case m.Renderer == nil:
		return errModule("module does not export a string renderer")
	case m.Bindings.CreateElement == nil:
		return errModule("module does not export UI bindings")
	}
	return nil
}
