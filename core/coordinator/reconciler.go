package coordinator

import (
	"context"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/metrics"
	"github.com/dmitrymomot/taskflow/core/task"
)

// reconcileQueued re-pushes messages for QUEUED rows, stalest first. This
// repairs the window where a row committed as QUEUED but the broker push was
// lost, whether to an outage or a broker restart. Rows and events are not
// touched; a duplicate message is harmless because the atomic claim admits
// only the first taker.
func (c *Coordinator) reconcileQueued(ctx context.Context) error {
	rows, err := c.store.ListQueued(ctx, c.reconcileLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	var pushed int
	for _, t := range rows {
		b := c.brokers.ForPriority(t.Priority)
		if err := b.Enqueue(ctx, broker.MainQueue, task.NewMessage(t).Bytes()); err != nil {
			c.log.WarnContext(ctx, "reconcile enqueue failed",
				"task_id", t.ID, "broker", b.Label(), "error", err)
			continue
		}
		pushed++
	}

	if pushed > 0 {
		c.repaired.Add(int64(pushed))
		metrics.TasksReconciled.Add(float64(pushed))
		c.log.InfoContext(ctx, "queued tasks reconciled", "count", pushed)
	}
	return nil
}
