package async

import "errors"

var (
	// ErrTimeout is returned by AwaitWithTimeout when the duration elapses
	// before the computation completes.
	ErrTimeout = errors.New("async: await timed out")
	// ErrNoFutures is returned by WaitAny when called without futures.
	ErrNoFutures = errors.New("async: no futures to wait for")
)
