package taskstore_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
)

func createTask(t *testing.T, store *taskstore.Memory, title, owner string, priority task.Priority) task.Task {
	t.Helper()

	created, err := store.Create(context.Background(), task.Task{
		Title:    title,
		OwnerID:  owner,
		Priority: priority,
		Payload:  `{"n":1}`,
	})
	require.NoError(t, err)
	return created
}

func TestMemoryCreate(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		created, err := store.Create(context.Background(), task.Task{
			Title:   "send_email",
			OwnerID: "user-1",
		})
		require.NoError(t, err)

		assert.Positive(t, created.ID)
		assert.Equal(t, task.StatusPending, created.Status)
		assert.Equal(t, task.PriorityLow, created.Priority)
		assert.Zero(t, created.RetryCount)
		assert.Nil(t, created.WorkerID)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, task.EventCreated, events[0].Type)
		assert.Equal(t, "task created", events[0].Message)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		_, err := store.Create(context.Background(), task.Task{OwnerID: "user-1"})
		assert.ErrorIs(t, err, taskstore.ErrInvalidTask)
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		_, err := store.Create(context.Background(), task.Task{Title: "send_email"})
		assert.ErrorIs(t, err, taskstore.ErrInvalidTask)
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		_, err := store.Create(context.Background(), task.Task{
			Title:    "send_email",
			OwnerID:  "user-1",
			Priority: task.Priority("urgent"),
		})
		assert.ErrorIs(t, err, taskstore.ErrInvalidTask)
	})
}

func TestMemoryClaimDueBatch(t *testing.T) {
	t.Parallel()

	t.Run("requires transaction", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		_, err := store.ClaimDueBatch(context.Background(), time.Now(), 10)
		assert.ErrorIs(t, err, taskstore.ErrNoTransaction)
	})

	t.Run("orders nil schedule first then ascending", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		firstUnscheduled := createTask(t, store, "first-unscheduled", "user-1", task.PriorityLow)
		secondUnscheduled := createTask(t, store, "second-unscheduled", "user-1", task.PriorityLow)
		pastDue := createTask(t, store, "past-due", "user-1", task.PriorityLow)
		future := createTask(t, store, "future", "user-1", task.PriorityLow)

		// Reschedule via retry: "past-due" becomes due one minute ago,
		// "future" an hour from now, the rest stay unscheduled.
		_, err := store.MarkForRetry(context.Background(), pastDue.ID, "boom", now.Add(-time.Minute-time.Second), time.Second)
		require.NoError(t, err)
		_, err = store.MarkForRetry(context.Background(), future.ID, "boom", now, time.Hour)
		require.NoError(t, err)

		var due []task.Task
		err = store.WithinTx(context.Background(), func(ctx context.Context) error {
			var txErr error
			due, txErr = store.ClaimDueBatch(ctx, now, 10)
			return txErr
		})
		require.NoError(t, err)

		require.Len(t, due, 3)
		assert.Equal(t, firstUnscheduled.ID, due[0].ID)
		assert.Equal(t, secondUnscheduled.ID, due[1].ID)
		assert.Equal(t, pastDue.ID, due[2].ID)
	})

	t.Run("boundary schedule is due", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "boundary", "user-1", task.PriorityLow)
		outcome, err := store.MarkForRetry(context.Background(), created.ID, "boom", now.Add(-time.Minute), time.Minute)
		require.NoError(t, err)
		require.True(t, outcome.Retried)

		var due []task.Task
		err = store.WithinTx(context.Background(), func(ctx context.Context) error {
			var txErr error
			due, txErr = store.ClaimDueBatch(ctx, now, 10)
			return txErr
		})
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, created.ID, due[0].ID)
	})

	t.Run("respects limit", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		for range 5 {
			createTask(t, store, "bulk", "user-1", task.PriorityLow)
		}

		var due []task.Task
		err := store.WithinTx(context.Background(), func(ctx context.Context) error {
			var txErr error
			due, txErr = store.ClaimDueBatch(ctx, time.Now(), 2)
			return txErr
		})
		require.NoError(t, err)
		assert.Len(t, due, 2)
	})

	t.Run("skips queued and terminal rows", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		queued := createTask(t, store, "queued", "user-1", task.PriorityLow)
		require.NoError(t, store.BatchUpdateStatus(context.Background(), []int64{queued.ID}, task.StatusQueued, now))

		done := createTask(t, store, "done", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), done.ID, "w1", now)
		require.NoError(t, err)
		require.NoError(t, store.MarkCompleted(context.Background(), done.ID, "ok", now))

		var due []task.Task
		err = store.WithinTx(context.Background(), func(ctx context.Context) error {
			var txErr error
			due, txErr = store.ClaimDueBatch(ctx, now, 10)
			return txErr
		})
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestMemoryBatchUpdateStatus(t *testing.T) {
	t.Parallel()

	t.Run("queued transition appends events", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		first := createTask(t, store, "first", "user-1", task.PriorityLow)
		second := createTask(t, store, "second", "user-1", task.PriorityLow)

		err := store.BatchUpdateStatus(context.Background(), []int64{first.ID, second.ID}, task.StatusQueued, now)
		require.NoError(t, err)

		for _, id := range []int64{first.ID, second.ID} {
			got, err := store.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, task.StatusQueued, got.Status)

			events, err := store.ListEvents(context.Background(), id)
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, task.EventQueued, events[1].Type)
		}
	})

	t.Run("ignores missing ids", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		err := store.BatchUpdateStatus(context.Background(), []int64{404}, task.StatusQueued, time.Now())
		assert.NoError(t, err)
	})
}

func TestMemoryAtomicClaim(t *testing.T) {
	t.Parallel()

	t.Run("claims queued task", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "claimable", "user-1", task.PriorityHigh)
		require.NoError(t, store.BatchUpdateStatus(context.Background(), []int64{created.ID}, task.StatusQueued, now))

		claimed, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, claimed.Status)
		require.NotNil(t, claimed.WorkerID)
		assert.Equal(t, "worker-1", *claimed.WorkerID)
	})

	t.Run("claims pending task", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		created := createTask(t, store, "pending", "user-1", task.PriorityLow)

		claimed, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", time.Now())
		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, claimed.Status)
	})

	t.Run("rejects second claim", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		created := createTask(t, store, "contested", "user-1", task.PriorityLow)

		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", time.Now())
		require.NoError(t, err)

		_, err = store.AtomicClaim(context.Background(), created.ID, "worker-2", time.Now())
		assert.ErrorIs(t, err, taskstore.ErrTaskUnclaimable)
	})

	t.Run("rejects missing task", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		_, err := store.AtomicClaim(context.Background(), 404, "worker-1", time.Now())
		assert.ErrorIs(t, err, taskstore.ErrTaskUnclaimable)
	})
}

func TestMemoryFinalization(t *testing.T) {
	t.Parallel()

	t.Run("completes with truncated event", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "complete-me", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)

		result := strings.Repeat("r", 600)
		require.NoError(t, store.MarkCompleted(context.Background(), created.ID, result, now))

		got, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusCompleted, got.Status)
		assert.Equal(t, result, got.Result)
		assert.Nil(t, got.WorkerID)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, task.EventCompleted, last.Type)
		assert.Len(t, last.Message, task.MaxEventMessageLen)
	})

	t.Run("repeat completion is a no-op", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "idempotent", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)

		require.NoError(t, store.MarkCompleted(context.Background(), created.ID, "ok", now))
		require.NoError(t, store.MarkCompleted(context.Background(), created.ID, "again", now))

		got, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ok", got.Result)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("conflicting terminal transition fails", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "conflicted", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)
		require.NoError(t, store.MarkFailed(context.Background(), created.ID, "boom", now))

		err = store.MarkCompleted(context.Background(), created.ID, "ok", now)
		assert.ErrorIs(t, err, taskstore.ErrTaskTerminal)
	})

	t.Run("missing task", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		assert.ErrorIs(t, store.MarkCompleted(context.Background(), 404, "ok", time.Now()), taskstore.ErrTaskNotFound)
		assert.ErrorIs(t, store.MarkFailed(context.Background(), 404, "boom", time.Now()), taskstore.ErrTaskNotFound)
	})
}

func TestMemoryMarkForRetry(t *testing.T) {
	t.Parallel()

	t.Run("retries until budget exhausted", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory(taskstore.WithMaxRetries(3))
		now := time.Now()

		created := createTask(t, store, "flaky", "user-1", task.PriorityLow)

		for attempt := 1; attempt <= 3; attempt++ {
			_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
			require.NoError(t, err)

			outcome, err := store.MarkForRetry(context.Background(), created.ID, "handler error", now, 10*time.Second)
			require.NoError(t, err)
			assert.True(t, outcome.Retried)
			assert.Equal(t, attempt, outcome.RetryCount)
			assert.Equal(t, 3-attempt, outcome.RetriesRemaining)

			got, err := store.Get(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, task.StatusPending, got.Status)
			assert.Nil(t, got.WorkerID)
			require.NotNil(t, got.ScheduledAt)
			assert.Equal(t, now.Add(10*time.Second), *got.ScheduledAt)
		}

		// Fourth failure exceeds the budget and fails permanently.
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)

		outcome, err := store.MarkForRetry(context.Background(), created.ID, "handler error", now, 10*time.Second)
		require.NoError(t, err)
		assert.False(t, outcome.Retried)
		assert.Equal(t, 4, outcome.RetryCount)
		assert.Zero(t, outcome.RetriesRemaining)

		got, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusFailed, got.Status)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)

		var retried, failed int
		for _, e := range events {
			switch e.Type {
			case task.EventRetried:
				retried++
			case task.EventFailed:
				failed++
			}
		}
		assert.Equal(t, 3, retried)
		assert.Equal(t, 1, failed)
	})

	t.Run("rejects terminal task", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "done", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)
		require.NoError(t, store.MarkCompleted(context.Background(), created.ID, "ok", now))

		_, err = store.MarkForRetry(context.Background(), created.ID, "boom", now, time.Second)
		assert.ErrorIs(t, err, taskstore.ErrTaskTerminal)
	})

	t.Run("zero budget fails immediately", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory(taskstore.WithMaxRetries(0))
		now := time.Now()

		created := createTask(t, store, "no-budget", "user-1", task.PriorityLow)
		outcome, err := store.MarkForRetry(context.Background(), created.ID, "boom", now, time.Second)
		require.NoError(t, err)
		assert.False(t, outcome.Retried)
		assert.Equal(t, 1, outcome.RetryCount)

		got, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusFailed, got.Status)
	})
}

func TestMemoryRequeueDead(t *testing.T) {
	t.Parallel()

	t.Run("requeues within budget", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory(taskstore.WithMaxRetries(3))
		now := time.Now()

		created := createTask(t, store, "abandoned", "user-1", task.PriorityHigh)
		_, err := store.AtomicClaim(context.Background(), created.ID, "dead-worker", now)
		require.NoError(t, err)

		recovered, outcome, err := store.RequeueDead(context.Background(), created.ID, "worker dead-worker missed heartbeat", now)
		require.NoError(t, err)
		assert.True(t, outcome.Retried)
		assert.Equal(t, 1, outcome.RetryCount)
		assert.Equal(t, task.StatusQueued, recovered.Status)
		assert.Nil(t, recovered.WorkerID)
		assert.Equal(t, task.PriorityHigh, recovered.Priority)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, task.EventRetried, last.Type)
		assert.Contains(t, last.Message, "missed heartbeat")
	})

	t.Run("fails past budget", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory(taskstore.WithMaxRetries(0))
		now := time.Now()

		created := createTask(t, store, "abandoned", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "dead-worker", now)
		require.NoError(t, err)

		_, outcome, err := store.RequeueDead(context.Background(), created.ID, "worker dead-worker missed heartbeat", now)
		require.NoError(t, err)
		assert.False(t, outcome.Retried)

		got, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusFailed, got.Status)
	})

	t.Run("rejects non in-progress rows", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		created := createTask(t, store, "still-pending", "user-1", task.PriorityLow)

		_, _, err := store.RequeueDead(context.Background(), created.ID, "reason", time.Now())
		assert.ErrorIs(t, err, taskstore.ErrTaskUnclaimable)
	})
}

func TestMemoryRequeue(t *testing.T) {
	t.Parallel()

	t.Run("returns row to queued", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "stale", "user-1", task.PriorityLow)
		require.NoError(t, store.Requeue(context.Background(), created.ID, now))

		got, err := store.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusQueued, got.Status)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, task.EventQueued, last.Type)
		assert.Equal(t, "reclaimed from processing queue", last.Message)
	})

	t.Run("leaves in-progress rows alone", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "active", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)

		assert.ErrorIs(t, store.Requeue(context.Background(), created.ID, now), taskstore.ErrTaskUnclaimable)
	})

	t.Run("leaves terminal rows alone", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		created := createTask(t, store, "finished", "user-1", task.PriorityLow)
		_, err := store.AtomicClaim(context.Background(), created.ID, "worker-1", now)
		require.NoError(t, err)
		require.NoError(t, store.MarkCompleted(context.Background(), created.ID, "ok", now))

		assert.ErrorIs(t, store.Requeue(context.Background(), created.ID, now), taskstore.ErrTaskUnclaimable)
	})
}

func TestMemoryQueries(t *testing.T) {
	t.Parallel()

	t.Run("list filters by owner status and search", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		createTask(t, store, "send_email", "alice", task.PriorityLow)
		report := createTask(t, store, "build_report", "alice", task.PriorityHigh)
		createTask(t, store, "send_email", "bob", task.PriorityLow)

		require.NoError(t, store.BatchUpdateStatus(context.Background(), []int64{report.ID}, task.StatusQueued, now))

		byOwner, err := store.List(context.Background(), taskstore.Filter{OwnerID: "alice"})
		require.NoError(t, err)
		assert.Len(t, byOwner, 2)

		byStatus, err := store.List(context.Background(), taskstore.Filter{OwnerID: "alice", Status: task.StatusQueued})
		require.NoError(t, err)
		require.Len(t, byStatus, 1)
		assert.Equal(t, report.ID, byStatus[0].ID)

		bySearch, err := store.List(context.Background(), taskstore.Filter{OwnerID: "alice", Search: "REPORT"})
		require.NoError(t, err)
		require.Len(t, bySearch, 1)
		assert.Equal(t, report.ID, bySearch[0].ID)
	})

	t.Run("list paginates newest first", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		var ids []int64
		for range 5 {
			ids = append(ids, createTask(t, store, "page", "alice", task.PriorityLow).ID)
		}

		page, err := store.List(context.Background(), taskstore.Filter{OwnerID: "alice", Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, ids[3], page[0].ID)
		assert.Equal(t, ids[2], page[1].ID)
	})

	t.Run("get scoped to owner", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		created := createTask(t, store, "private", "alice", task.PriorityLow)

		_, err := store.GetForOwner(context.Background(), created.ID, "bob")
		assert.ErrorIs(t, err, taskstore.ErrTaskNotFound)

		got, err := store.GetForOwner(context.Background(), created.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("delete scoped to owner", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		created := createTask(t, store, "disposable", "alice", task.PriorityLow)

		assert.ErrorIs(t, store.Delete(context.Background(), created.ID, "bob"), taskstore.ErrTaskNotFound)
		require.NoError(t, store.Delete(context.Background(), created.ID, "alice"))

		_, err := store.Get(context.Background(), created.ID)
		assert.ErrorIs(t, err, taskstore.ErrTaskNotFound)

		events, err := store.ListEvents(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("list in progress", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		now := time.Now()

		first := createTask(t, store, "first", "alice", task.PriorityLow)
		second := createTask(t, store, "second", "alice", task.PriorityLow)
		createTask(t, store, "untouched", "alice", task.PriorityLow)

		_, err := store.AtomicClaim(context.Background(), first.ID, "w1", now)
		require.NoError(t, err)
		_, err = store.AtomicClaim(context.Background(), second.ID, "w2", now)
		require.NoError(t, err)

		inProgress, err := store.ListInProgress(context.Background())
		require.NoError(t, err)
		require.Len(t, inProgress, 2)
		assert.Equal(t, first.ID, inProgress[0].ID)
		assert.Equal(t, second.ID, inProgress[1].ID)
	})

	t.Run("list queued stalest first with limit", func(t *testing.T) {
		t.Parallel()

		store := taskstore.NewMemory()
		base := time.Now()

		first := createTask(t, store, "first", "alice", task.PriorityLow)
		second := createTask(t, store, "second", "alice", task.PriorityLow)
		third := createTask(t, store, "third", "alice", task.PriorityLow)

		require.NoError(t, store.BatchUpdateStatus(context.Background(), []int64{third.ID}, task.StatusQueued, base.Add(-3*time.Minute)))
		require.NoError(t, store.BatchUpdateStatus(context.Background(), []int64{first.ID}, task.StatusQueued, base.Add(-2*time.Minute)))
		require.NoError(t, store.BatchUpdateStatus(context.Background(), []int64{second.ID}, task.StatusQueued, base.Add(-time.Minute)))

		queued, err := store.ListQueued(context.Background(), 2)
		require.NoError(t, err)
		require.Len(t, queued, 2)
		assert.Equal(t, third.ID, queued[0].ID)
		assert.Equal(t, first.ID, queued[1].ID)
	})
}
