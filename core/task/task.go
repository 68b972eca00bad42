package task

import (
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"

	// StatusRetrying is retained for compatibility with stored rows.
	// Nothing transitions into it anymore; claim filters treat it as PENDING.
	StatusRetrying Status = "RETRYING"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusInProgress, StatusCompleted, StatusFailed, StatusRetrying:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// EventType classifies entries in a task's event history.
type EventType string

const (
	EventCreated   EventType = "CREATED"
	EventQueued    EventType = "QUEUED"
	EventRetried   EventType = "RETRIED"
	EventCompleted EventType = "COMPLETED"
	EventFailed    EventType = "FAILED"

	// Older deployments wrote these on claim. Current code never appends
	// them but stored histories may still contain them.
	EventPickedUp   EventType = "PICKED_UP"
	EventInProgress EventType = "IN_PROGRESS"
)

// Priority selects which broker a task is dispatched through.
type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityLow  Priority = "low"
)

// Valid reports whether p is a known priority value.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityLow
}

// MaxEventMessageLen caps event history messages. Full results are stored on
// the task row; the event log only keeps a preview.
const MaxEventMessageLen = 500

// TruncateMessage shortens s to MaxEventMessageLen characters.
func TruncateMessage(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxEventMessageLen {
		return s
	}
	return string(runes[:MaxEventMessageLen])
}

// Task is a unit of work persisted in the task store.
//
// WorkerID is non-nil exactly while the task is IN_PROGRESS; every status
// update maintains that pairing. UpdatedAt moves forward on each write and
// the processing reclaimer reads it as the liveness clock for QUEUED rows.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	OwnerID     string     `json:"owner_id"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Payload     string     `json:"payload"`
	Result      string     `json:"result,omitempty"`
	WorkerID    *string    `json:"worker_id,omitempty"`
	RetryCount  int        `json:"retry_count"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Due reports whether the task is eligible for dispatch at now.
// A nil ScheduledAt means immediately eligible; the boundary is inclusive.
func (t Task) Due(now time.Time) bool {
	return t.ScheduledAt == nil || !t.ScheduledAt.After(now)
}

// Event is one entry in a task's append-only history.
type Event struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Type      EventType `json:"event_type"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
