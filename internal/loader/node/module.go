package node

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/staticrender/internal/render"
)

// staticRouter is the element type standing for the bundle's StaticRouter.
const staticRouter = "StaticRouter"

// Element describes an element the harness constructs on the Node side.
type Element struct {
	Type  any
	Props render.Props
}

// newModule exposes a harness as a render.Module. Elements are descriptions;
// the harness builds and renders the real tree on each RenderToString.
func newModule(c *client, info infoResponse, closer func() error) (*render.Module, error) {
	if len(info.Missing) > 0 {
		if closer != nil {
			_ = closer()
		}
		return nil, fmt.Errorf("artifact default export is missing %s", strings.Join(info.Missing, ", "))
	}
	return &render.Module{
		RootID:       info.RootID,
		StaticRouter: staticRouter,
		Bindings: render.Bindings{
			CreateElement: func(typ any, props render.Props) render.Element {
				return Element{Type: typ, Props: props}
			},
		},
		RouterToElement: func(ctx context.Context, router render.Component) (render.Element, error) {
			return router(render.Props{}), nil
		},
		Renderer: render.StringRendererFunc(func(ctx context.Context, el render.Element) (string, error) {
			e, ok := el.(Element)
			if !ok || e.Type != staticRouter {
				return "", fmt.Errorf("cannot render %T outside the static router", el)
			}
			location, _ := e.Props["location"].(string)
			locals, _ := e.Props["context"].(map[string]any)
			return c.render(ctx, location, locals)
		}),
		Closer: closer,
	}, nil
}
