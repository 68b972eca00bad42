package broker

import (
	"context"
	"errors"

	"github.com/dmitrymomot/taskflow/core/task"
)

// Pair routes work across the two broker instances. High-priority tasks go
// to the high instance, everything else to low. Coordination keys (leader
// lease, worker heartbeats) live on the high instance because bulk traffic
// never backs it up.
type Pair struct {
	high *Broker
	low  *Broker
}

// NewPair combines the two instances.
func NewPair(high, low *Broker) (Pair, error) {
	if high == nil || low == nil {
		return Pair{}, ErrIncompletePair
	}
	return Pair{high: high, low: low}, nil
}

// High returns the high-priority instance.
func (p Pair) High() *Broker {
	return p.high
}

// Low returns the low-priority instance.
func (p Pair) Low() *Broker {
	return p.low
}

// ForPriority returns the instance serving the given priority. Anything that
// is not high routes low.
func (p Pair) ForPriority(priority task.Priority) *Broker {
	if priority == task.PriorityHigh {
		return p.high
	}
	return p.low
}

// Coordination returns the instance carrying the leader lease and worker
// heartbeats.
func (p Pair) Coordination() *Broker {
	return p.high
}

// Each returns both instances, high first. The order matters to the worker
// poll cycle, which drains high before low.
func (p Pair) Each() []*Broker {
	return []*Broker{p.high, p.low}
}

// RemoveProcessing acknowledges a message by removing it from the processing
// queue of both instances. The finalize path does not track which instance
// served the message, and removing an absent entry is a no-op.
func (p Pair) RemoveProcessing(ctx context.Context, message []byte) error {
	return errors.Join(
		p.high.RemoveOne(ctx, ProcessingQueue, message),
		p.low.RemoveOne(ctx, ProcessingQueue, message),
	)
}

// Healthcheck pings both instances and joins the failures.
func (p Pair) Healthcheck(ctx context.Context) error {
	return errors.Join(
		p.high.Healthcheck(ctx),
		p.low.Healthcheck(ctx),
	)
}

// Close releases both instances' connections.
func (p Pair) Close() error {
	return errors.Join(p.high.Close(), p.low.Close())
}
