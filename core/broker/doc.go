// Package broker wraps the two redis instances that carry queue messages,
// the leader lease, and worker heartbeats. The store remains the source of
// truth; the broker is a lossy cross-process channel that the scheduler and
// reconciler repair when messages go missing.
//
// # Queues
//
// Each instance holds a main queue and a processing queue under well-known
// names. The only claim primitive is the atomic pop-and-move, so a crash
// mid-claim never drops a message:
//
//	msg, err := b.PopToProcessing(ctx, broker.MainQueue, broker.ProcessingQueue, time.Second)
//	if errors.Is(err, broker.ErrNoMessage) {
//		// queue empty, poll again
//	}
//
// Acknowledgement removes the exact message bytes from processing:
//
//	err := b.RemoveOne(ctx, broker.ProcessingQueue, msg)
//
// # Priority Routing
//
// A Pair routes by task priority and drains high before low:
//
//	pair, err := broker.NewPair(high, low)
//	target := pair.ForPriority(task.PriorityHigh)
//	err = target.Enqueue(ctx, broker.MainQueue, msg)
//
// # Leases and Heartbeats
//
// Leader election runs on the coordination instance with compare-and-extend
// semantics implemented as server-side scripts:
//
//	held, err := b.AcquireLease(ctx, broker.LeaderKey, instanceID, 10*time.Second)
//	renewed, err := b.ExtendLease(ctx, broker.LeaderKey, instanceID, 10*time.Second)
//	err = b.ReleaseLease(ctx, broker.LeaderKey, instanceID)
//
// Worker liveness is an ephemeral key whose existence is the only signal:
//
//	err := b.SetWithTTL(ctx, broker.HeartbeatKey(workerID), "alive", 10*time.Second)
//	alive, err := b.Exists(ctx, broker.HeartbeatKey(workerID))
package broker
