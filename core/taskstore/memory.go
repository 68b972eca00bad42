package taskstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/taskflow/core/task"
)

// memTxKey marks contexts derived by Memory.WithinTx.
type memTxKey struct{}

// Memory is an in-memory task store with the same transition semantics as
// Store. It backs unit tests and local development; it offers no durability
// and no rollback (WithinTx serializes whole transactions instead).
type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	tasks  map[int64]task.Task
	events map[int64][]task.Event

	nextTaskID  int64
	nextEventID int64

	maxRetries int
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Memory{
		tasks:      make(map[int64]task.Task),
		events:     make(map[int64][]task.Event),
		maxRetries: o.maxRetries,
	}
}

// MaxRetries returns the configured retry budget.
func (m *Memory) MaxRetries() int {
	return m.maxRetries
}

func inMemoryTx(ctx context.Context) bool {
	v, ok := ctx.Value(memTxKey{}).(bool)
	return ok && v
}

// WithinTx serializes fn against every other transaction. Mutations are not
// rolled back when fn fails.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inMemoryTx(ctx) {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	return fn(context.WithValue(ctx, memTxKey{}, true))
}

func (m *Memory) appendEvent(taskID int64, eventType task.EventType, message string, at time.Time) {
	m.nextEventID++
	m.events[taskID] = append(m.events[taskID], task.Event{
		ID:        m.nextEventID,
		TaskID:    taskID,
		Type:      eventType,
		Message:   message,
		CreatedAt: at,
	})
}

// Create inserts a PENDING task and appends its CREATED event.
func (m *Memory) Create(_ context.Context, t task.Task) (task.Task, error) {
	if t.Title == "" {
		return task.Task{}, ErrInvalidTask
	}
	if t.OwnerID == "" {
		return task.Task{}, ErrInvalidTask
	}
	if t.Priority == "" {
		t.Priority = task.PriorityLow
	}
	if !t.Priority.Valid() {
		return task.Task{}, ErrInvalidTask
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.nextTaskID++
	t.ID = m.nextTaskID
	t.Status = task.StatusPending
	t.Result = ""
	t.WorkerID = nil
	t.RetryCount = 0
	t.CreatedAt = now
	t.UpdatedAt = now

	m.tasks[t.ID] = t
	m.appendEvent(t.ID, task.EventCreated, "task created", now)

	return t, nil
}

// ClaimDueBatch returns due rows eligible for dispatch. Requires a WithinTx
// context, mirroring the row-lock contract of the SQL store.
func (m *Memory) ClaimDueBatch(ctx context.Context, now time.Time, limit int) ([]task.Task, error) {
	if !inMemoryTx(ctx) {
		return nil, ErrNoTransaction
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []task.Task
	for _, t := range m.tasks {
		if (t.Status == task.StatusPending || t.Status == task.StatusRetrying) && t.Due(now) {
			due = append(due, t)
		}
	}

	// scheduled_at ascending, nil first; id breaks ties for determinism.
	sort.Slice(due, func(i, j int) bool {
		a, b := due[i].ScheduledAt, due[j].ScheduledAt
		switch {
		case a == nil && b == nil:
			return due[i].ID < due[j].ID
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Equal(*b):
			return due[i].ID < due[j].ID
		default:
			return a.Before(*b)
		}
	})

	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// BatchUpdateStatus bulk-updates rows; QUEUED transitions append QUEUED events.
func (m *Memory) BatchUpdateStatus(_ context.Context, ids []int64, status task.Status, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		t, ok := m.tasks[id]
		if !ok {
			continue
		}
		t.Status = status
		t.UpdatedAt = now
		m.tasks[id] = t

		if status == task.StatusQueued {
			m.appendEvent(id, task.EventQueued, "", now)
		}
	}
	return nil
}

// AtomicClaim transitions one claimable row to IN_PROGRESS under workerID.
func (m *Memory) AtomicClaim(_ context.Context, taskID int64, workerID string, now time.Time) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return task.Task{}, ErrTaskUnclaimable
	}
	switch t.Status {
	case task.StatusPending, task.StatusQueued, task.StatusRetrying:
	default:
		return task.Task{}, ErrTaskUnclaimable
	}

	t.Status = task.StatusInProgress
	t.WorkerID = &workerID
	t.UpdatedAt = now
	m.tasks[taskID] = t

	return t, nil
}

// MarkCompleted finalizes a task with its result.
func (m *Memory) MarkCompleted(_ context.Context, taskID int64, result string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status == task.StatusCompleted {
		return nil
	}
	if t.Status == task.StatusFailed {
		return ErrTaskTerminal
	}

	t.Status = task.StatusCompleted
	t.Result = result
	t.WorkerID = nil
	t.UpdatedAt = now
	m.tasks[taskID] = t
	m.appendEvent(taskID, task.EventCompleted, task.TruncateMessage(result), now)

	return nil
}

// MarkFailed finalizes a task as FAILED.
func (m *Memory) MarkFailed(_ context.Context, taskID int64, errMsg string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status == task.StatusFailed {
		return nil
	}
	if t.Status == task.StatusCompleted {
		return ErrTaskTerminal
	}

	t.Status = task.StatusFailed
	t.WorkerID = nil
	t.UpdatedAt = now
	m.tasks[taskID] = t
	m.appendEvent(taskID, task.EventFailed, task.TruncateMessage(errMsg), now)

	return nil
}

// MarkForRetry increments the retry count and reschedules or fails the task.
func (m *Memory) MarkForRetry(_ context.Context, taskID int64, errMsg string, now time.Time, backoff time.Duration) (RetryOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return RetryOutcome{}, ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return RetryOutcome{}, ErrTaskTerminal
	}

	t.RetryCount++
	t.WorkerID = nil
	t.UpdatedAt = now

	outcome := RetryOutcome{
		RetryCount:       t.RetryCount,
		Retried:          t.RetryCount <= m.maxRetries,
		RetriesRemaining: max(0, m.maxRetries-t.RetryCount),
	}

	if outcome.Retried {
		next := now.Add(backoff)
		t.Status = task.StatusPending
		t.ScheduledAt = &next
		m.appendEvent(taskID, task.EventRetried, task.TruncateMessage(errMsg), now)
	} else {
		t.Status = task.StatusFailed
		m.appendEvent(taskID, task.EventFailed, task.TruncateMessage(errMsg), now)
	}

	m.tasks[taskID] = t
	return outcome, nil
}

// RequeueDead recovers an IN_PROGRESS row whose worker died.
func (m *Memory) RequeueDead(_ context.Context, taskID int64, reason string, now time.Time) (task.Task, RetryOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.Status != task.StatusInProgress {
		return task.Task{}, RetryOutcome{}, ErrTaskUnclaimable
	}

	t.RetryCount++
	t.WorkerID = nil
	t.UpdatedAt = now

	outcome := RetryOutcome{
		RetryCount:       t.RetryCount,
		Retried:          t.RetryCount <= m.maxRetries,
		RetriesRemaining: max(0, m.maxRetries-t.RetryCount),
	}

	if outcome.Retried {
		t.Status = task.StatusQueued
		m.appendEvent(taskID, task.EventRetried, task.TruncateMessage(reason), now)
	} else {
		t.Status = task.StatusFailed
		m.appendEvent(taskID, task.EventFailed, task.TruncateMessage(reason), now)
	}

	m.tasks[taskID] = t
	return t, outcome, nil
}

// Requeue returns a stale non-IN_PROGRESS row to QUEUED.
func (m *Memory) Requeue(_ context.Context, taskID int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return ErrTaskUnclaimable
	}
	if t.Status == task.StatusInProgress || t.Status.Terminal() {
		return ErrTaskUnclaimable
	}

	t.Status = task.StatusQueued
	t.WorkerID = nil
	t.UpdatedAt = now
	m.tasks[taskID] = t
	m.appendEvent(taskID, task.EventQueued, "reclaimed from processing queue", now)

	return nil
}

// Get returns the task by id.
func (m *Memory) Get(_ context.Context, taskID int64) (task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return task.Task{}, ErrTaskNotFound
	}
	return t, nil
}

// GetForOwner returns the task by id scoped to its owner.
func (m *Memory) GetForOwner(_ context.Context, taskID int64, ownerID string) (task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, ErrTaskNotFound
	}
	return t, nil
}

// List returns tasks matching the filter, newest first.
func (m *Memory) List(_ context.Context, f Filter) ([]task.Task, error) {
	f = f.normalize()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []task.Task
	for _, t := range m.tasks {
		if f.OwnerID != "" && t.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Delete removes the owner's task and its events.
func (m *Memory) Delete(_ context.Context, taskID int64, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return ErrTaskNotFound
	}

	delete(m.tasks, taskID)
	delete(m.events, taskID)
	return nil
}

// ListEvents returns the task's history oldest first.
func (m *Memory) ListEvents(_ context.Context, taskID int64) ([]task.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.events[taskID]
	out := make([]task.Event, len(events))
	copy(out, events)
	return out, nil
}

// ListInProgress returns every IN_PROGRESS row.
func (m *Memory) ListInProgress(_ context.Context) ([]task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []task.Task
	for _, t := range m.tasks {
		if t.Status == task.StatusInProgress {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListQueued returns up to limit QUEUED rows, stalest first.
func (m *Memory) ListQueued(_ context.Context, limit int) ([]task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []task.Task
	for _, t := range m.tasks {
		if t.Status == task.StatusQueued {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Healthcheck always succeeds for the in-memory store.
func (m *Memory) Healthcheck(context.Context) error {
	return nil
}
