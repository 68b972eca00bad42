// Package worker implements the task execution runtime: a serial loop that
// claims one message at a time from the broker pair, runs the registered
// handler under a timeout, and finalizes the row in the task store.
//
// # Basic Usage
//
//	handlers := registry.New()
//	handlers.Register(registry.Echo(), registry.Sleep())
//
//	w, err := worker.New(store, brokers, handlers,
//		worker.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(w.Run(ctx))
//	return g.Wait()
//
// # Claim Protocol
//
// A poll atomically moves the head of the queue into the processing list and
// only then hands the bytes to the worker, so a crash mid-claim never loses
// the message. The store's atomic claim then decides ownership: exactly one
// worker wins a given task, duplicates and replays lose the claim and drop
// their entry. The entry is removed from both processing lists once the row
// is finalized, whatever the outcome.
//
// # Failure Handling
//
// A handler error or timeout costs one retry: the row returns to PENDING
// with a growing delay, five seconds per attempt capped at a minute, until
// the budget is spent and the row goes to FAILED. Handler panics are
// captured and treated as errors. A handler that ignores its context after a
// timeout keeps its goroutine until it returns; the row is finalized and the
// loop moves on regardless.
//
// The worker heartbeats through the coordination broker while running. When
// the heartbeats stop, the coordinator's recovery scanner requeues whatever
// the worker had claimed.
package worker
