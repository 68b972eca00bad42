package worker

import (
	"context"
	"time"

	"github.com/dmitrymomot/taskflow/core/broker"
)

// runHeartbeat refreshes the worker's liveness key until ctx ends, then
// deletes it so the recovery scanner picks up our in-flight work immediately
// instead of waiting out the TTL. The TTL exceeds the interval, so a single
// slow write never reads as death.
func (w *Worker) runHeartbeat(ctx context.Context) {
	coord := w.brokers.Coordination()
	key := broker.HeartbeatKey(w.id)

	beat := func() {
		if err := coord.SetWithTTL(ctx, key, "alive", w.heartbeatTTL); err != nil && ctx.Err() == nil {
			w.log.WarnContext(ctx, "heartbeat write failed", "worker_id", w.id, "error", err)
		}
	}

	beat()
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := coord.Delete(cleanupCtx, key); err != nil {
				w.log.Warn("heartbeat cleanup failed", "worker_id", w.id, "error", err)
			}
			return
		case <-ticker.C:
			beat()
		}
	}
}
