package taskstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/integration/database/pg"
)

const taskColumns = `id, title, owner_id, status, priority, payload, result, worker_id, retry_count, scheduled_at, created_at, updated_at`

// Statuses eligible for dispatch by the scheduler. RETRYING is a legacy value
// treated exactly like PENDING.
var dueStatuses = []string{string(task.StatusPending), string(task.StatusRetrying)}

// Statuses a worker may claim from. QUEUED is the normal case; PENDING covers
// retried tasks whose stale broker message arrives before the next tick.
var claimableStatuses = []string{string(task.StatusPending), string(task.StatusQueued), string(task.StatusRetrying)}

// querier abstracts the pool and an ambient transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL-backed task store. All mutating operations are
// transactional; methods participate in a caller transaction when the context
// carries one (see pg.WithTx), otherwise they manage their own.
type Store struct {
	pool       *pgxpool.Pool
	maxRetries int
}

// New creates a Store on the given pool.
func New(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	if pool == nil {
		return nil, ErrNilPool
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Store{
		pool:       pool,
		maxRetries: o.maxRetries,
	}, nil
}

// MaxRetries returns the configured retry budget.
func (s *Store) MaxRetries() int {
	return s.maxRetries
}

func (s *Store) db(ctx context.Context) querier {
	if tx, ok := pg.TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// WithinTx runs fn inside a transaction carried by the derived context.
// Nested calls join the outer transaction instead of opening a new one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := pg.TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(pg.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Create inserts a PENDING task and appends its CREATED event.
func (s *Store) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if t.Title == "" {
		return task.Task{}, errors.Join(ErrInvalidTask, errors.New("title is required"))
	}
	if t.OwnerID == "" {
		return task.Task{}, errors.Join(ErrInvalidTask, errors.New("owner_id is required"))
	}
	if t.Priority == "" {
		t.Priority = task.PriorityLow
	}
	if !t.Priority.Valid() {
		return task.Task{}, errors.Join(ErrInvalidTask, fmt.Errorf("unknown priority %q", t.Priority))
	}

	var created task.Task
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		row := q.QueryRow(ctx, `
			INSERT INTO tasks (title, owner_id, status, priority, payload, scheduled_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+taskColumns,
			t.Title, t.OwnerID, task.StatusPending, t.Priority, t.Payload, t.ScheduledAt)

		var err error
		created, err = scanTask(row)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO task_events (task_id, event_type, message)
			VALUES ($1, $2, $3)`,
			created.ID, task.EventCreated, "task created")
		if err != nil {
			return fmt.Errorf("append created event: %w", err)
		}

		return nil
	})
	if err != nil {
		return task.Task{}, err
	}

	return created, nil
}

// ClaimDueBatch selects up to limit due rows, locking each and skipping rows
// locked elsewhere. The caller must hold the transaction (pg.WithTx) and
// transition the returned rows before committing.
func (s *Store) ClaimDueBatch(ctx context.Context, now time.Time, limit int) ([]task.Task, error) {
	if _, ok := pg.TxFromContext(ctx); !ok {
		return nil, ErrNoTransaction
	}

	rows, err := s.db(ctx).Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = ANY($1) AND (scheduled_at IS NULL OR scheduled_at <= $2)
		ORDER BY scheduled_at ASC NULLS FIRST
		LIMIT $3
		FOR UPDATE SKIP LOCKED`,
		dueStatuses, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due batch: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// BatchUpdateStatus bulk-updates the status of the given rows. Transitions to
// QUEUED also append a QUEUED event per task.
func (s *Store) BatchUpdateStatus(ctx context.Context, ids []int64, status task.Status, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	return s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		if _, err := q.Exec(ctx, `
			UPDATE tasks SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
			status, now, ids); err != nil {
			return fmt.Errorf("batch update status: %w", err)
		}

		if status == task.StatusQueued {
			if _, err := q.Exec(ctx, `
				INSERT INTO task_events (task_id, event_type, created_at)
				SELECT unnest($1::bigint[]), $2, $3`,
				ids, task.EventQueued, now); err != nil {
				return fmt.Errorf("append queued events: %w", err)
			}
		}

		return nil
	})
}

// AtomicClaim transitions one row to IN_PROGRESS under workerID in a single
// statement and returns the claimed row. ErrTaskUnclaimable reports a lost
// race: the row is gone, already claimed, or terminal. No event is appended.
func (s *Store) AtomicClaim(ctx context.Context, taskID int64, workerID string, now time.Time) (task.Task, error) {
	row := s.db(ctx).QueryRow(ctx, `
		UPDATE tasks
		SET status = $1, worker_id = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)
		RETURNING `+taskColumns,
		task.StatusInProgress, workerID, now, taskID, claimableStatuses)

	claimed, err := scanTask(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return task.Task{}, ErrTaskUnclaimable
		}
		return task.Task{}, fmt.Errorf("atomic claim: %w", err)
	}

	return claimed, nil
}

// MarkCompleted finalizes a task with its result and appends a COMPLETED
// event carrying a truncated preview. Completing an already COMPLETED task is
// a no-op; completing a FAILED task returns ErrTaskTerminal.
func (s *Store) MarkCompleted(ctx context.Context, taskID int64, result string, now time.Time) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		tag, err := q.Exec(ctx, `
			UPDATE tasks
			SET status = $1, result = $2, worker_id = NULL, updated_at = $3
			WHERE id = $4 AND status NOT IN ($5, $6)`,
			task.StatusCompleted, result, now, taskID, task.StatusCompleted, task.StatusFailed)
		if err != nil {
			return fmt.Errorf("mark completed: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return s.classifyUnchanged(ctx, taskID, task.StatusCompleted)
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO task_events (task_id, event_type, message, created_at)
			VALUES ($1, $2, $3, $4)`,
			taskID, task.EventCompleted, task.TruncateMessage(result), now); err != nil {
			return fmt.Errorf("append completed event: %w", err)
		}

		return nil
	})
}

// MarkFailed finalizes a task as FAILED and appends a FAILED event.
func (s *Store) MarkFailed(ctx context.Context, taskID int64, errMsg string, now time.Time) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		tag, err := q.Exec(ctx, `
			UPDATE tasks
			SET status = $1, worker_id = NULL, updated_at = $2
			WHERE id = $3 AND status NOT IN ($4, $5)`,
			task.StatusFailed, now, taskID, task.StatusCompleted, task.StatusFailed)
		if err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return s.classifyUnchanged(ctx, taskID, task.StatusFailed)
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO task_events (task_id, event_type, message, created_at)
			VALUES ($1, $2, $3, $4)`,
			taskID, task.EventFailed, task.TruncateMessage(errMsg), now); err != nil {
			return fmt.Errorf("append failed event: %w", err)
		}

		return nil
	})
}

// classifyUnchanged explains a zero-row conditional update on taskID.
// Re-finalizing with the same terminal status is treated as success.
func (s *Store) classifyUnchanged(ctx context.Context, taskID int64, attempted task.Status) error {
	var status task.Status
	err := s.db(ctx).QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1`, taskID).Scan(&status)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("inspect task %d: %w", taskID, err)
	}
	if status == attempted {
		return nil
	}
	return ErrTaskTerminal
}

// MarkForRetry increments the retry count and either reschedules the task as
// PENDING with scheduled_at = now + backoff (RETRIED event) or, once the
// budget is exhausted, fails it (FAILED event). The worker id is cleared
// either way.
func (s *Store) MarkForRetry(ctx context.Context, taskID int64, errMsg string, now time.Time, backoff time.Duration) (RetryOutcome, error) {
	var outcome RetryOutcome

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		row := q.QueryRow(ctx, `
			UPDATE tasks
			SET retry_count  = retry_count + 1,
			    status       = CASE WHEN retry_count + 1 <= $1 THEN $2 ELSE $3 END,
			    scheduled_at = CASE WHEN retry_count + 1 <= $1 THEN $4::timestamptz ELSE scheduled_at END,
			    worker_id    = NULL,
			    updated_at   = $5
			WHERE id = $6 AND status NOT IN ($7, $3)
			RETURNING retry_count, status`,
			s.maxRetries, task.StatusPending, task.StatusFailed, now.Add(backoff), now, taskID,
			task.StatusCompleted)

		var status task.Status
		if err := row.Scan(&outcome.RetryCount, &status); err != nil {
			if pg.IsNotFoundError(err) {
				return s.classifyUnchanged(ctx, taskID, task.StatusPending)
			}
			return fmt.Errorf("mark for retry: %w", err)
		}

		outcome.Retried = status != task.StatusFailed
		outcome.RetriesRemaining = max(0, s.maxRetries-outcome.RetryCount)

		eventType := task.EventRetried
		if !outcome.Retried {
			eventType = task.EventFailed
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO task_events (task_id, event_type, message, created_at)
			VALUES ($1, $2, $3, $4)`,
			taskID, eventType, task.TruncateMessage(errMsg), now); err != nil {
			return fmt.Errorf("append retry event: %w", err)
		}

		return nil
	})
	if err != nil {
		return RetryOutcome{}, err
	}

	return outcome, nil
}

// RequeueDead handles an IN_PROGRESS row whose worker stopped heartbeating:
// budget left moves it back to QUEUED for re-dispatch (RETRIED event),
// exhausted budget fails it (FAILED event). Returns the updated row so the
// caller can re-enqueue its message. ErrTaskUnclaimable reports that the row
// left IN_PROGRESS in the meantime.
func (s *Store) RequeueDead(ctx context.Context, taskID int64, reason string, now time.Time) (task.Task, RetryOutcome, error) {
	var (
		updated task.Task
		outcome RetryOutcome
	)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		row := q.QueryRow(ctx, `
			UPDATE tasks
			SET retry_count = retry_count + 1,
			    status      = CASE WHEN retry_count + 1 <= $1 THEN $2 ELSE $3 END,
			    worker_id   = NULL,
			    updated_at  = $4
			WHERE id = $5 AND status = $6
			RETURNING `+taskColumns,
			s.maxRetries, task.StatusQueued, task.StatusFailed, now, taskID, task.StatusInProgress)

		var err error
		updated, err = scanTask(row)
		if err != nil {
			if pg.IsNotFoundError(err) {
				return ErrTaskUnclaimable
			}
			return fmt.Errorf("requeue dead: %w", err)
		}

		outcome.RetryCount = updated.RetryCount
		outcome.Retried = updated.Status != task.StatusFailed
		outcome.RetriesRemaining = max(0, s.maxRetries-outcome.RetryCount)

		eventType := task.EventRetried
		if !outcome.Retried {
			eventType = task.EventFailed
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO task_events (task_id, event_type, message, created_at)
			VALUES ($1, $2, $3, $4)`,
			taskID, eventType, task.TruncateMessage(reason), now); err != nil {
			return fmt.Errorf("append recovery event: %w", err)
		}

		return nil
	})
	if err != nil {
		return task.Task{}, RetryOutcome{}, err
	}

	return updated, outcome, nil
}

// Requeue returns a stale non-IN_PROGRESS row to QUEUED after its processing
// entry was reclaimed, appending a QUEUED event. Terminal and IN_PROGRESS
// rows are left untouched (ErrTaskUnclaimable).
func (s *Store) Requeue(ctx context.Context, taskID int64, now time.Time) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.db(ctx)

		tag, err := q.Exec(ctx, `
			UPDATE tasks
			SET status = $1, worker_id = NULL, updated_at = $2
			WHERE id = $3 AND status NOT IN ($4, $5, $6)`,
			task.StatusQueued, now, taskID,
			task.StatusInProgress, task.StatusCompleted, task.StatusFailed)
		if err != nil {
			return fmt.Errorf("requeue: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrTaskUnclaimable
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO task_events (task_id, event_type, message, created_at)
			VALUES ($1, $2, $3, $4)`,
			taskID, task.EventQueued, "reclaimed from processing queue", now); err != nil {
			return fmt.Errorf("append requeue event: %w", err)
		}

		return nil
	})
}

// Get returns the task by id.
func (s *Store) Get(ctx context.Context, taskID int64) (task.Task, error) {
	row := s.db(ctx).QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID)

	t, err := scanTask(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return task.Task{}, ErrTaskNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// GetForOwner returns the task by id scoped to its owner.
func (s *Store) GetForOwner(ctx context.Context, taskID int64, ownerID string) (task.Task, error) {
	row := s.db(ctx).QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, taskID, ownerID)

	t, err := scanTask(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return task.Task{}, ErrTaskNotFound
		}
		return task.Task{}, fmt.Errorf("get task for owner: %w", err)
	}
	return t, nil
}

// List returns tasks matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]task.Task, error) {
	f = f.normalize()

	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.OwnerID != "" {
		add("owner_id = $%d", f.OwnerID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Search != "" {
		add("title ILIKE $%d", "%"+f.Search+"%")
	}

	sql := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Delete removes the owner's task; events cascade at the schema level.
func (s *Store) Delete(ctx context.Context, taskID int64, ownerID string) error {
	tag, err := s.db(ctx).Exec(ctx, `
		DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListEvents returns the task's history oldest first.
func (s *Store) ListEvents(ctx context.Context, taskID int64) ([]task.Event, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT id, task_id, event_type, message, created_at
		FROM task_events
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []task.Event
	for rows.Next() {
		var (
			e       task.Event
			message *string
		)
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Type, &message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if message != nil {
			e.Message = *message
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListInProgress returns every IN_PROGRESS row for the recovery scanner.
func (s *Store) ListInProgress(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY updated_at ASC`,
		task.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("list in progress: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListQueued returns up to limit QUEUED rows, stalest first, for the reconciler.
func (s *Store) ListQueued(ctx context.Context, limit int) ([]task.Task, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY updated_at ASC LIMIT $2`,
		task.StatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Healthcheck verifies database connectivity.
func (s *Store) Healthcheck(ctx context.Context) error {
	return pg.Healthcheck(s.pool)(ctx)
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t           task.Task
		workerID    *string
		scheduledAt *time.Time
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.OwnerID, &t.Status, &t.Priority, &t.Payload,
		&t.Result, &workerID, &t.RetryCount, &scheduledAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}
	t.WorkerID = workerID
	t.ScheduledAt = scheduledAt
	return t, nil
}

func collectTasks(rows pgx.Rows) ([]task.Task, error) {
	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
