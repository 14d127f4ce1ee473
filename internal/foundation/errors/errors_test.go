package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "staticrender.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "staticrender.yaml", file)
	})

	t.Run("Config errors need user action", func(t *testing.T) {
		err := ConfigError("`pages` is a mandatory field!").Build()

		assert.True(t, IsClassified(err))
		assert.True(t, HasCategory(err, CategoryConfig))
		assert.True(t, err.IsFatal())
		assert.False(t, err.CanRetry())
		assert.Equal(t, RetryUserAction, err.RetryStrategy())
	})

	t.Run("Render errors are not fatal", func(t *testing.T) {
		err := RenderError("Outputted markup for / was blank!").Build()
		assert.False(t, err.IsFatal())
		assert.Equal(t, SeverityError, err.Severity())
	})
}

func TestErrorBuilder_Wrapping(t *testing.T) {
	original := errors.New("exit status 2")
	err := WrapError(original, CategoryBuild, "esbuild failed").
		Warning().
		WithContext("artifact", "/tmp/bundle.js").
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	assert.ErrorIs(t, err, original)
	assert.Equal(t, original, err.Cause())
	assert.Contains(t, err.Error(), "exit status 2")
}

func TestClassification_ThroughWrapping(t *testing.T) {
	inner := ConfigError("Please specify a unique target entry with `targetEntry`").Build()
	outer := fmt.Errorf("derive sub-build: %w", inner)

	classified, ok := AsClassified(outer)
	require.True(t, ok)
	assert.Same(t, inner, classified)
	assert.Equal(t, CategoryConfig, GetCategory(outer))
	assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	assert.True(t, errors.Is(outer, ConfigError("Please specify a unique target entry with `targetEntry`").Build()))
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{"route": "/", "page": "home"}
	b := ErrorContext{"page": "index"}

	merged := a.Merge(b)
	assert.Equal(t, "index", merged["page"])
	assert.Equal(t, "/", merged["route"])
	assert.Equal(t, "home", a["page"], "receiver must not be mutated")

	var empty ErrorContext
	assert.Equal(t, b, empty.Merge(b))
}
