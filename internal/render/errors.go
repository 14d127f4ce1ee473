package render

import (
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

func errModule(msg string) error {
	return foundationerrors.RenderError(msg).Build()
}
