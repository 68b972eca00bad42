package broker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/task"
)

func newTestPair(t *testing.T) broker.Pair {
	t.Helper()

	high, _ := newTestBroker(t, broker.WithLabel("high"))
	low, _ := newTestBroker(t, broker.WithLabel("low"))

	pair, err := broker.NewPair(high, low)
	require.NoError(t, err)
	return pair
}

func TestNewPair(t *testing.T) {
	t.Parallel()

	t.Run("requires both instances", func(t *testing.T) {
		t.Parallel()

		high, _ := newTestBroker(t)
		_, err := broker.NewPair(high, nil)
		assert.ErrorIs(t, err, broker.ErrIncompletePair)

		_, err = broker.NewPair(nil, high)
		assert.ErrorIs(t, err, broker.ErrIncompletePair)
	})
}

func TestPairRouting(t *testing.T) {
	t.Parallel()

	pair := newTestPair(t)

	assert.Same(t, pair.High(), pair.ForPriority(task.PriorityHigh))
	assert.Same(t, pair.Low(), pair.ForPriority(task.PriorityLow))
	// Unknown priorities route low, never high.
	assert.Same(t, pair.Low(), pair.ForPriority(task.Priority("urgent")))

	assert.Same(t, pair.High(), pair.Coordination())

	both := pair.Each()
	require.Len(t, both, 2)
	assert.Equal(t, "high", both[0].Label())
	assert.Equal(t, "low", both[1].Label())
}

func TestPairRemoveProcessing(t *testing.T) {
	t.Parallel()

	t.Run("removes from whichever instance holds it", func(t *testing.T) {
		t.Parallel()

		pair := newTestPair(t)
		ctx := context.Background()
		msg := []byte(`{"task_id":3,"title":"echo","payload":""}`)

		require.NoError(t, pair.Low().Enqueue(ctx, broker.ProcessingQueue, msg))
		require.NoError(t, pair.RemoveProcessing(ctx, msg))

		depth, err := pair.Low().Len(ctx, broker.ProcessingQueue)
		require.NoError(t, err)
		assert.Zero(t, depth)
	})

	t.Run("no-op when absent everywhere", func(t *testing.T) {
		t.Parallel()

		pair := newTestPair(t)
		assert.NoError(t, pair.RemoveProcessing(context.Background(), []byte("absent")))
	})
}
