package taskstore

import "github.com/dmitrymomot/taskflow/core/task"

// DefaultListLimit is applied when a Filter does not set one.
const DefaultListLimit = 10

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	OwnerID string
	Status  task.Status
	// Search matches as a case-insensitive substring of the title.
	Search string
	Limit  int
	Offset int
}

// normalize applies the default limit and floors the offset.
func (f Filter) normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RetryOutcome reports what a retry-accounting transition decided.
type RetryOutcome struct {
	// Retried is true when the task was given another attempt; false means
	// the budget was exhausted and the task is now FAILED.
	Retried bool
	// RetryCount is the count after the increment.
	RetryCount int
	// RetriesRemaining is how many more failures the task can absorb.
	RetriesRemaining int
}
