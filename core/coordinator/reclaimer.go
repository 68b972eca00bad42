package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/metrics"
	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
)

// reclaimProcessing sweeps both processing queues for entries whose worker
// claimed a message and then vanished before reaching the atomic claim. Such
// rows are still QUEUED (never IN_PROGRESS, those belong to the recovery
// scanner) and their updated_at has not moved since dispatch.
//
// Per entry:
//   - undecodable bytes are dropped,
//   - entries for deleted rows are dropped,
//   - IN_PROGRESS rows keep their entry, the owning worker acks it,
//   - rows touched within the reclaim age keep their entry, the claim may
//     still be in flight,
//   - stale terminal rows lose the entry, nothing to rerun,
//   - stale live rows lose the entry and get re-queued with the same bytes.
func (c *Coordinator) reclaimProcessing(ctx context.Context) error {
	now := time.Now().UTC()

	var errs []error
	for _, b := range c.brokers.Each() {
		entries, err := b.Range(ctx, broker.ProcessingQueue, 0, int64(c.reclaimScanLimit)-1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(entries) == c.reclaimScanLimit {
			if depth, err := b.Len(ctx, broker.ProcessingQueue); err == nil && depth > int64(c.reclaimScanLimit) {
				c.log.WarnContext(ctx, "processing scan truncated",
					"broker", b.Label(), "scanned", c.reclaimScanLimit, "depth", depth)
			}
		}

		for _, raw := range entries {
			msg, err := task.DecodeMessage(raw)
			if err != nil {
				metrics.MalformedMessages.WithLabelValues(b.Label()).Inc()
				c.log.WarnContext(ctx, "dropping malformed processing entry",
					"broker", b.Label(), "error", err)
				if err := b.RemoveOne(ctx, broker.ProcessingQueue, raw); err != nil {
					errs = append(errs, err)
				}
				continue
			}

			t, err := c.store.Get(ctx, msg.TaskID)
			if errors.Is(err, taskstore.ErrTaskNotFound) {
				if err := b.RemoveOne(ctx, broker.ProcessingQueue, raw); err != nil {
					errs = append(errs, err)
				}
				continue
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}

			if t.Status == task.StatusInProgress {
				continue
			}
			if now.Sub(t.UpdatedAt) <= c.reclaimAge {
				continue
			}

			if err := b.RemoveOne(ctx, broker.ProcessingQueue, raw); err != nil {
				errs = append(errs, err)
				continue
			}
			if t.Status.Terminal() {
				continue
			}

			if err := c.store.Requeue(ctx, t.ID, now); err != nil {
				// Unclaimable means another actor advanced the row after our
				// read; its new state does not need this entry.
				if !errors.Is(err, taskstore.ErrTaskUnclaimable) {
					c.log.ErrorContext(ctx, "processing entry requeue failed",
						"task_id", t.ID, "error", err)
				}
				continue
			}
			if err := b.Enqueue(ctx, broker.MainQueue, msg.Bytes()); err != nil {
				// Row stays QUEUED; the reconciler re-pushes it later.
				c.log.ErrorContext(ctx, "reclaimed message enqueue failed",
					"task_id", t.ID, "broker", b.Label(), "error", err)
				continue
			}

			c.reclaimed.Add(1)
			metrics.MessagesReclaimed.WithLabelValues(b.Label()).Inc()
			c.log.InfoContext(ctx, "processing entry reclaimed",
				"task_id", t.ID, "broker", b.Label(),
				"idle", now.Sub(t.UpdatedAt).Truncate(time.Second))
		}
	}

	c.sampleDepths(ctx)
	return errors.Join(errs...)
}

// sampleDepths refreshes the queue depth gauges. Best effort; a failed read
// leaves the previous sample in place.
func (c *Coordinator) sampleDepths(ctx context.Context) {
	for _, b := range c.brokers.Each() {
		for _, queue := range []string{broker.MainQueue, broker.ProcessingQueue} {
			depth, err := b.Len(ctx, queue)
			if err != nil {
				c.log.DebugContext(ctx, "queue depth sample failed",
					"broker", b.Label(), "queue", queue, "error", err)
				continue
			}
			metrics.QueueDepth.WithLabelValues(b.Label(), queue).Set(float64(depth))
		}
	}
}
