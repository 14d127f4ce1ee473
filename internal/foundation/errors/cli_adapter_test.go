package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "plain error", err: errors.New("boom"), expected: 1},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("`pages` is a mandatory field!").Build(), expected: 7},
		{name: "build", err: BuildError("compile failed").Build(), expected: 11},
		{name: "render", err: RenderError("blank markup").Build(), expected: 11},
		{name: "runtime", err: RuntimeError("node exited").Build(), expected: 12},
		{name: "internal", err: InternalError("unreachable").Build(), expected: 10},
		{name: "wrapped config", err: fmt.Errorf("trigger: %w", ConfigError("ambiguous").Build()), expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cfgErr := ConfigError("Cannot find the entry admin").Build()
	assert.Equal(t, "Error: Cannot find the entry admin", quiet.FormatError(cfgErr))
	assert.Equal(t, cfgErr.Error(), verbose.FormatError(cfgErr))

	internal := InternalError("nil module").Build()
	assert.Contains(t, quiet.FormatError(internal), "use -v for details")

	wrapped := WrapError(errors.New("exit status 1"), CategoryRuntime, "node harness failed").Build()
	assert.Equal(t, "Error: node harness failed: exit status 1", quiet.FormatError(wrapped))

	assert.Equal(t, "Error: plain", quiet.FormatError(errors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}
