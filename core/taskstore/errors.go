package taskstore

import "errors"

// Domain-specific task store errors. Use errors.Is() to match; callers decide
// whether a condition is a race to discard or a failure to surface.
var (
	// ErrNilPool is returned by New when no connection pool is provided.
	ErrNilPool = errors.New("taskstore: nil connection pool")
	// ErrInvalidTask is returned by Create when required fields are missing.
	ErrInvalidTask = errors.New("taskstore: invalid task")
	// ErrTaskNotFound is returned when no row matches the requested id.
	ErrTaskNotFound = errors.New("taskstore: task not found")
	// ErrTaskUnclaimable is returned when a conditional transition matched no
	// row because the task is not in an eligible state. Claim races fall here.
	ErrTaskUnclaimable = errors.New("taskstore: task not in claimable state")
	// ErrTaskTerminal is returned when a mutation targets a COMPLETED or
	// FAILED row that permits no further transitions.
	ErrTaskTerminal = errors.New("taskstore: task already in terminal state")
	// ErrNoTransaction is returned by operations that take row locks when the
	// context does not carry an open transaction.
	ErrNoTransaction = errors.New("taskstore: operation requires a transaction")
)
