package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/core/registry"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("register and resolve", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		reg.Register(registry.NewFunc("send_email", func(context.Context, string) (any, error) {
			return "sent", nil
		}))

		h, err := reg.Resolve("send_email")
		require.NoError(t, err)
		assert.Equal(t, "send_email", h.Name())

		result, err := h.Handle(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "sent", result)
	})

	t.Run("unknown title", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		_, err := reg.Resolve("missing")
		assert.ErrorIs(t, err, registry.ErrHandlerNotFound)
	})

	t.Run("resolution is repeatable", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		reg.Register(registry.Echo())

		first, err := reg.Resolve("echo")
		require.NoError(t, err)
		second, err := reg.Resolve("echo")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		reg.Register(registry.Echo())
		assert.Panics(t, func() {
			reg.Register(registry.Echo())
		})
	})

	t.Run("empty name panics", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		assert.Panics(t, func() {
			reg.Register(registry.NewFunc("", func(context.Context, string) (any, error) {
				return nil, nil
			}))
		})
	})

	t.Run("names sorted", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		reg.Register(registry.Sleep(), registry.Echo())
		assert.Equal(t, []string{"echo", "sleep"}, reg.Names())
	})
}

func TestJSONFunc(t *testing.T) {
	t.Parallel()

	type args struct {
		To string `json:"to"`
	}

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()

		h := registry.NewJSONFunc("send_email", func(_ context.Context, a args) (any, error) {
			return a.To, nil
		})

		result, err := h.Handle(context.Background(), `{"to":"user@example.com"}`)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", result)
	})

	t.Run("empty payload yields zero value", func(t *testing.T) {
		t.Parallel()

		h := registry.NewJSONFunc("send_email", func(_ context.Context, a args) (any, error) {
			return a.To, nil
		})

		result, err := h.Handle(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "", result)
	})

	t.Run("malformed payload is a handler error", func(t *testing.T) {
		t.Parallel()

		h := registry.NewJSONFunc("send_email", func(_ context.Context, a args) (any, error) {
			return a.To, nil
		})

		_, err := h.Handle(context.Background(), "{not json")
		assert.ErrorIs(t, err, registry.ErrInvalidPayload)
	})
}
