// Package coordinator runs the control plane of the task platform: a leader
// election over the broker pair plus four repair loops that only the current
// leader executes.
//
// Any number of coordinator processes may run at once. They all compete for
// one lease key; the holder dispatches due tasks and repairs drift between
// the store and the brokers, the rest idle until the lease frees up.
//
// # Basic Usage
//
//	coord, err := coordinator.New(store, brokers,
//		coordinator.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(coord.Run(ctx))
//	return g.Wait()
//
// Intervals usually come from the environment:
//
//	cfg := config.MustLoad[coordinator.Config]()
//	coord, err := coordinator.NewFromConfig(cfg, store, brokers)
//
// # Leader Election
//
// The lease is a single key on the coordination broker written with SET NX
// and a millisecond TTL. The leader extends it ahead of expiry with a
// compare-and-extend script; followers retry SET NX on the same tick. Losing
// the lease simply flips the instance back to follower, the loops check
// leadership before every pass. On shutdown the leader deletes its own lease
// so a standby takes over without waiting out the TTL.
//
// # Loops
//
// Scheduler: claims due PENDING rows with row locks, pushes their messages to
// the priority-matched broker, and commits them as QUEUED in one transaction.
//
// Recovery: scans IN_PROGRESS rows and requeues or fails the ones whose
// worker heartbeat expired.
//
// Reclaimer: sweeps the processing queues for entries abandoned between the
// broker pop and the store claim, and re-queues the live ones.
//
// Reconciler: re-pushes messages for QUEUED rows so broker data loss never
// strands a committed row.
//
// The store is the source of truth throughout. Brokers are treated as lossy;
// every loop is written so a duplicate message is benign and a lost message
// is eventually replaced.
package coordinator
