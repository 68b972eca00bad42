package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/metrics"
	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
)

// recoverDead scans IN_PROGRESS rows and gives back the ones whose worker
// stopped heartbeating. A recovered task goes straight to QUEUED with a fresh
// broker message, or to FAILED once its retry budget is spent.
//
// Heartbeats live on the coordination instance, so one Exists per suspect row
// is the whole liveness protocol.
func (c *Coordinator) recoverDead(ctx context.Context) error {
	rows, err := c.store.ListInProgress(ctx)
	if err != nil {
		return err
	}

	coord := c.brokers.Coordination()
	for _, t := range rows {
		var reason string
		switch {
		case t.WorkerID == nil:
			reason = "orphaned with no worker id"
		default:
			alive, err := coord.Exists(ctx, broker.HeartbeatKey(*t.WorkerID))
			if err != nil {
				c.log.WarnContext(ctx, "heartbeat probe failed",
					"task_id", t.ID, "worker_id", *t.WorkerID, "error", err)
				continue
			}
			if alive {
				continue
			}
			reason = fmt.Sprintf("worker %s heartbeat expired", *t.WorkerID)
		}

		recovered, outcome, err := c.store.RequeueDead(ctx, t.ID, reason, time.Now().UTC())
		if err != nil {
			// Unclaimable means the row moved on between the scan and this
			// write, usually a finalizer racing us.
			if !errors.Is(err, taskstore.ErrTaskUnclaimable) {
				c.log.ErrorContext(ctx, "dead task recovery failed", "task_id", t.ID, "error", err)
			}
			continue
		}

		if !outcome.Retried {
			metrics.TasksFailed.Inc()
			c.log.WarnContext(ctx, "dead task out of retries",
				"task_id", t.ID, "reason", reason, "retry_count", outcome.RetryCount)
			continue
		}

		msg := task.NewMessage(recovered).Bytes()
		if err := c.brokers.ForPriority(recovered.Priority).Enqueue(ctx, broker.MainQueue, msg); err != nil {
			// Row is already QUEUED; the reconciler re-pushes it later.
			c.log.ErrorContext(ctx, "recovered task enqueue failed", "task_id", t.ID, "error", err)
			continue
		}

		c.recovered.Add(1)
		metrics.TasksRecovered.Inc()
		c.log.InfoContext(ctx, "dead task recovered",
			"task_id", t.ID, "reason", reason,
			"retry_count", outcome.RetryCount, "retries_remaining", outcome.RetriesRemaining)
	}
	return nil
}
