package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/pkg/async"
)

func TestAsync_Success(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	value, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.True(t, future.IsComplete())
}

func TestAsync_Error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	future := async.Async(context.Background(), "in", func(ctx context.Context, s string) (string, error) {
		return "", wantErr
	})

	value, err := future.Await()
	assert.ErrorIs(t, err, wantErr)
	assert.Empty(t, value)
}

func TestAsync_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	future := async.Async(ctx, 0, func(ctx context.Context, _ int) (int, error) {
		ran.Store(true)
		return 1, nil
	})

	_, err := future.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load(), "function must not run once the context is cancelled")
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("completes in time", func(t *testing.T) {
		t.Parallel()

		future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (string, error) {
			return "done", nil
		})

		value, err := future.AwaitWithTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, "done", value)
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)

		future := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (string, error) {
			<-release
			return "late", nil
		})

		value, err := future.AwaitWithTimeout(20 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
		assert.Empty(t, value)
		assert.False(t, future.IsComplete())
	})
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	t.Run("all succeed in order", func(t *testing.T) {
		t.Parallel()

		double := func(ctx context.Context, n int) (int, error) { return n * 2, nil }
		results, err := async.WaitAll(
			async.Async(context.Background(), 1, double),
			async.Async(context.Background(), 2, double),
			async.Async(context.Background(), 3, double),
		)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4, 6}, results)
	})

	t.Run("collects errors", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("second failed")
		ok := func(ctx context.Context, n int) (int, error) { return n, nil }
		bad := func(ctx context.Context, n int) (int, error) { return 0, wantErr }

		_, err := async.WaitAll(
			async.Async(context.Background(), 1, ok),
			async.Async(context.Background(), 2, bad),
		)
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestWaitAny(t *testing.T) {
	t.Parallel()

	t.Run("returns first completion", func(t *testing.T) {
		t.Parallel()

		slowRelease := make(chan struct{})
		defer close(slowRelease)

		slow := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (string, error) {
			<-slowRelease
			return "slow", nil
		})
		fast := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (string, error) {
			return "fast", nil
		})

		idx, value, err := async.WaitAny(slow, fast)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
		assert.Equal(t, "fast", value)
	})

	t.Run("no futures", func(t *testing.T) {
		t.Parallel()

		idx, _, err := async.WaitAny[string]()
		assert.Equal(t, -1, idx)
		assert.ErrorIs(t, err, async.ErrNoFutures)
	})
}
