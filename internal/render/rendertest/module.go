// Package rendertest provides an in-memory render module for tests.
package rendertest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/staticrender/internal/render"
)

// RouterType is the element type the fake module uses for its static router.
const RouterType = "StaticRouter"

// Node is an element of the fake UI tree.
type Node struct {
	Type  any
	Props render.Props
}

// Deferred resolves to Node after an optional error.
type Deferred struct {
	Node Node
	Err  error
}

func (d Deferred) Await(ctx context.Context) (render.Element, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Node, nil
}

// BodyFunc returns the inner markup for a location.
type BodyFunc func(location string, locals map[string]any) (string, error)

// DefaultBody renders the location and sorted locals.
func DefaultBody(location string, locals map[string]any) (string, error) {
	keys := make([]string, 0, len(locals))
	for k := range locals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, `<main data-route="%s">`, location)
	for _, k := range keys {
		fmt.Fprintf(&b, `<p data-local="%s">%v</p>`, k, locals[k])
	}
	b.WriteString("</main>")
	return b.String(), nil
}

// Module is a configurable fake render module.
type Module struct {
	RootID string
	Body   BodyFunc
	// Async wraps every root element in a Deferred.
	Async bool
	// Panic makes RenderToString panic for the given location.
	Panic string

	mu      sync.Mutex
	renders map[string]int
	closed  int
}

// Renders returns how often location was rendered.
func (f *Module) Renders(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renders[location]
}

// Closed returns how often the module was closed.
func (f *Module) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Build returns the render.Module view of f.
func (f *Module) Build() *render.Module {
	rootID := f.RootID
	if rootID == "" {
		rootID = "app"
	}
	body := f.Body
	if body == nil {
		body = DefaultBody
	}
	return &render.Module{
		RootID:       rootID,
		StaticRouter: RouterType,
		Bindings: render.Bindings{
			CreateElement: func(typ any, props render.Props) render.Element {
				return Node{Type: typ, Props: props}
			},
		},
		RouterToElement: func(ctx context.Context, router render.Component) (render.Element, error) {
			el := router(render.Props{"children": "App"})
			if f.Async {
				return Deferred{Node: el.(Node)}, nil
			}
			return el, nil
		},
		Renderer: render.StringRendererFunc(func(ctx context.Context, el render.Element) (string, error) {
			n, ok := el.(Node)
			if !ok || n.Type != RouterType {
				return "", fmt.Errorf("unexpected element %T", el)
			}
			location, _ := n.Props["location"].(string)
			locals, _ := n.Props["context"].(map[string]any)
			if f.Panic != "" && location == f.Panic {
				panic("render exploded for " + location)
			}
			f.mu.Lock()
			if f.renders == nil {
				f.renders = make(map[string]int)
			}
			f.renders[location]++
			f.mu.Unlock()
			return body(location, locals)
		}),
		Closer: func() error {
			f.mu.Lock()
			f.closed++
			f.mu.Unlock()
			return nil
		},
	}
}
