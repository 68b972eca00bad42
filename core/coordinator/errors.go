package coordinator

import "errors"

var (
	// ErrNilStore is returned by New when no task store is provided.
	ErrNilStore = errors.New("coordinator: nil task store")
	// ErrNilBroker is returned by New when the broker pair is incomplete.
	ErrNilBroker = errors.New("coordinator: nil broker instance")
	// ErrAlreadyStarted is returned by Start on a running coordinator.
	ErrAlreadyStarted = errors.New("coordinator: already started")
	// ErrNotStarted is returned by Stop before Start.
	ErrNotStarted = errors.New("coordinator: not started")
	// ErrNotRunning signals a stopped coordinator in healthcheck results.
	ErrNotRunning = errors.New("coordinator: not running")
	// ErrShutdownTimeout is returned by Stop when in-flight loop passes did
	// not finish within the shutdown window.
	ErrShutdownTimeout = errors.New("coordinator: shutdown timeout exceeded")
	// ErrHealthcheckFailed wraps healthcheck failures for errors.Is matching.
	ErrHealthcheckFailed = errors.New("coordinator: healthcheck failed")
)
