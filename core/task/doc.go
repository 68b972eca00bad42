// Package task defines the domain model shared by every TaskFlow process:
// task rows, their lifecycle statuses, the append-only event history, and the
// JSON wire message carried through the brokers.
//
// # Lifecycle
//
// Tasks move PENDING -> QUEUED -> IN_PROGRESS and finish in COMPLETED or
// FAILED. A handler failure with retry budget left returns the task to
// PENDING with a backoff applied to ScheduledAt; a dead worker returns it to
// QUEUED. COMPLETED and FAILED are terminal.
//
// # Wire Messages
//
// Broker queues carry Message encodings. Consumers decode to read the task
// id; anything that moves a message between queues forwards the original
// bytes so fields added by newer writers are preserved.
package task
