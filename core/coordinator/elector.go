package coordinator

import (
	"context"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/metrics"
)

// maintainLease is the election pass. A non-leader tries to take the lease;
// the leader extends it. Losing the lease only flips local state, the next
// pass starts competing again.
func (c *Coordinator) maintainLease(ctx context.Context) error {
	coord := c.brokers.Coordination()

	if c.leader.Load() {
		renewed, err := coord.ExtendLease(ctx, broker.LeaderKey, c.instanceID, c.leaseTTL)
		if err != nil || !renewed {
			c.leader.Store(false)
			metrics.LeaderStatus.Set(0)
			metrics.LeadershipTransitions.WithLabelValues(metrics.EventLost).Inc()
			c.log.WarnContext(ctx, "leader lease lost", "instance_id", c.instanceID, "error", err)
			return nil
		}
		return nil
	}

	acquired, err := coord.AcquireLease(ctx, broker.LeaderKey, c.instanceID, c.leaseTTL)
	if err != nil {
		return err
	}
	if acquired {
		c.leader.Store(true)
		metrics.LeaderStatus.Set(1)
		metrics.LeadershipTransitions.WithLabelValues(metrics.EventAcquired).Inc()
		c.log.InfoContext(ctx, "leader lease acquired", "instance_id", c.instanceID)
	}
	return nil
}

// relinquish releases the lease on shutdown so a standby can take over
// without waiting for expiry. Only deletes the key if we still own it.
func (c *Coordinator) relinquish(ctx context.Context) {
	if err := c.brokers.Coordination().ReleaseLease(ctx, broker.LeaderKey, c.instanceID); err != nil {
		c.log.WarnContext(ctx, "leader lease release failed", "instance_id", c.instanceID, "error", err)
	}
	c.leader.Store(false)
	metrics.LeaderStatus.Set(0)
	metrics.LeadershipTransitions.WithLabelValues(metrics.EventReleased).Inc()
	c.log.InfoContext(ctx, "leader lease released", "instance_id", c.instanceID)
}
