package coordinator

import (
	"context"
	"time"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/metrics"
	"github.com/dmitrymomot/taskflow/core/task"
)

// dispatchDue moves due PENDING rows onto the brokers and marks them QUEUED.
// The whole pass runs inside one store transaction so the claimed rows stay
// row-locked until commit and a second coordinator cannot dispatch them
// concurrently. Rows whose broker push fails keep their status and are
// retried on the next tick.
//
// The broker push happens before the commit. If the commit then fails the
// pushed messages point at rows still PENDING, which workers claim fine, and
// the next pass skips rows a worker already took.
func (c *Coordinator) dispatchDue(ctx context.Context) error {
	return c.store.WithinTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		due, err := c.store.ClaimDueBatch(txCtx, now, c.batchSize)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		groups := make(map[*broker.Broker][]task.Task, 2)
		for _, t := range due {
			b := c.brokers.ForPriority(t.Priority)
			groups[b] = append(groups[b], t)
		}

		queued := make([]int64, 0, len(due))
		for b, tasks := range groups {
			messages := make([][]byte, len(tasks))
			for i, t := range tasks {
				messages[i] = task.NewMessage(t).Bytes()
			}

			accepted, err := b.EnqueueBatch(txCtx, broker.MainQueue, messages)
			if err != nil {
				c.log.ErrorContext(txCtx, "broker enqueue failed",
					"broker", b.Label(), "count", len(tasks), "error", err)
			}
			for _, idx := range accepted {
				queued = append(queued, tasks[idx].ID)
			}
			if failed := len(tasks) - len(accepted); failed > 0 {
				metrics.EnqueueFailures.WithLabelValues(b.Label()).Add(float64(failed))
				if err == nil {
					// No transport error, so these exceeded the message size
					// cap. They stay PENDING and will be skipped again.
					c.log.WarnContext(txCtx, "oversized messages not dispatched",
						"broker", b.Label(), "count", failed)
				}
			}
		}

		if len(queued) == 0 {
			return nil
		}
		if err := c.store.BatchUpdateStatus(txCtx, queued, task.StatusQueued, now); err != nil {
			return err
		}

		c.scheduled.Add(int64(len(queued)))
		metrics.TasksScheduled.Add(float64(len(queued)))
		c.log.InfoContext(txCtx, "due tasks dispatched", "count", len(queued))
		return nil
	})
}
