package worker

import "errors"

var (
	// ErrNilStore is returned by New when no task store is provided.
	ErrNilStore = errors.New("worker: nil task store")
	// ErrNilBroker is returned by New when the broker pair is incomplete.
	ErrNilBroker = errors.New("worker: nil broker instance")
	// ErrNilRegistry is returned by New when no handler registry is provided.
	ErrNilRegistry = errors.New("worker: nil handler registry")
	// ErrAlreadyStarted is returned by Start on a running worker.
	ErrAlreadyStarted = errors.New("worker: already started")
	// ErrNotStarted is returned by Stop before Start.
	ErrNotStarted = errors.New("worker: not started")
	// ErrNotRunning signals a stopped worker in healthcheck results.
	ErrNotRunning = errors.New("worker: not running")
	// ErrShutdownTimeout is returned by Stop when the in-flight task did not
	// finish within the shutdown window.
	ErrShutdownTimeout = errors.New("worker: shutdown timeout exceeded")
	// ErrHealthcheckFailed wraps healthcheck failures for errors.Is matching.
	ErrHealthcheckFailed = errors.New("worker: healthcheck failed")
)
