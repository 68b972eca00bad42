package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil, nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestDuration(t *testing.T) {
	t.Parallel()

	d := 5 * time.Second
	attr := logger.Duration(d)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, d, attr.Value.Duration())
}

func TestTaskID(t *testing.T) {
	t.Parallel()

	attr := logger.TaskID(42)
	require.Equal(t, "task_id", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())
}

func TestWorkerID(t *testing.T) {
	t.Parallel()

	attr := logger.WorkerID("ab12cd34")
	require.Equal(t, "worker_id", attr.Key)
	assert.Equal(t, "ab12cd34", attr.Value.String())

	empty := logger.WorkerID("")
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestID(t *testing.T) {
	t.Parallel()

	attr := logger.ID("owner_id", "u-1")
	require.Equal(t, "owner_id", attr.Key)
	assert.Equal(t, "u-1", attr.Value.Any())

	empty := logger.ID("owner_id", nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestCountAndRetryCount(t *testing.T) {
	t.Parallel()

	attr := logger.Count("scheduled", 7)
	require.Equal(t, "scheduled", attr.Key)
	assert.Equal(t, int64(7), attr.Value.Int64())

	rc := logger.RetryCount(3)
	require.Equal(t, "retry_count", rc.Key)
	assert.Equal(t, int64(3), rc.Value.Int64())
}
