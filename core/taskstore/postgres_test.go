package taskstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/core/taskstore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil pool", func(t *testing.T) {
		t.Parallel()

		_, err := taskstore.New(nil)
		assert.ErrorIs(t, err, taskstore.ErrNilPool)
	})
}

func TestWithMaxRetries(t *testing.T) {
	t.Parallel()

	t.Run("override", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory(taskstore.WithMaxRetries(7))
		assert.Equal(t, 7, store.MaxRetries())
	})

	t.Run("negative values keep the default", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory(taskstore.WithMaxRetries(-1))
		require.Equal(t, taskstore.DefaultMaxRetries, store.MaxRetries())
	})
}
