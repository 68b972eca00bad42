// Package async runs a function on its own goroutine and hands back a typed
// Future for the result, with bounded waits and helpers for coordinating
// several computations.
//
// # Usage
//
//	future := async.Async(ctx, taskID, loadTask)
//
//	// Do other work...
//
//	task, err := future.Await()
//
// Bounding the wait:
//
//	result, err := future.AwaitWithTimeout(3 * time.Minute)
//	if errors.Is(err, async.ErrTimeout) {
//		// the computation keeps running; cancel its context to stop it
//	}
//
// AwaitWithTimeout abandons the wait, not the work. Callers that need the
// work stopped too should pass a context they cancel on timeout, as the
// worker runtime does for handler execution.
//
// # Coordination
//
// WaitAll collects every result and joins the errors. WaitAny returns the
// index and result of whichever future completes first, or ErrNoFutures when
// called with none.
//
// # Concurrency Safety
//
// All operations are safe for concurrent use. Completion is guarded by
// sync.Once, so a future resolves exactly once no matter how many waiters
// observe it. If the context is cancelled before the function starts, the
// future completes with the context error and the function never runs.
package async
