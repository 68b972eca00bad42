package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/taskflow/core/registry"
)

func TestFormatResult(t *testing.T) {
	t.Parallel()

	t.Run("nil stores empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", registry.FormatResult(nil))
	})

	t.Run("messager wins over everything", func(t *testing.T) {
		t.Parallel()

		r := registry.Result{Success: true, Msg: "done", Data: map[string]any{"rows": 3}}
		assert.Equal(t, "done", registry.FormatResult(r))
	})

	t.Run("map serializes to json", func(t *testing.T) {
		t.Parallel()

		got := registry.FormatResult(map[string]any{"v": 1})
		assert.JSONEq(t, `{"v":1}`, got)
	})

	t.Run("string passes through", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, `echo: {"v":1}`, registry.FormatResult(`echo: {"v":1}`))
	})

	t.Run("other values use their string form", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "42", registry.FormatResult(42))
		assert.Equal(t, "true", registry.FormatResult(true))
	})
}
