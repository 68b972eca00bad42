package broker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	redisdb "github.com/dmitrymomot/taskflow/integration/database/redis"
)

// Well-known broker object names. Every instance uses the same names; the
// high/low split is by endpoint, not by key.
const (
	// MainQueue holds messages awaiting a worker, FIFO per instance.
	MainQueue = "queue:default"
	// ProcessingQueue holds messages claimed by a worker but not yet
	// acknowledged. The reclaimer sweeps it for abandoned entries.
	ProcessingQueue = "processing:default"
	// LeaderKey holds the current coordinator leader's instance id.
	LeaderKey = "taskflow:leader"
)

// HeartbeatKey returns the liveness key a worker refreshes while running.
// Only existence is tested; the value does not matter.
func HeartbeatKey(workerID string) string {
	return "worker:" + workerID + ":heartbeat"
}

// extendLeaseScript atomically extends the lease expiration only while the
// stored value still matches the caller's instance id. A GET-then-PEXPIRE
// pair would race with expiry between the two commands.
var extendLeaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("pexpire", KEYS[1], ARGV[2])
else
    return 0
end
`)

// releaseLeaseScript deletes the lease only while the caller still owns it,
// so a slow shutdown never deletes a successor's lease.
var releaseLeaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Broker wraps one redis instance with the queue, lease, and heartbeat
// operations the platform needs. Methods are safe for concurrent use.
type Broker struct {
	client         *redis.Client
	label          string
	maxMessageSize int
}

// New wraps an established redis client. The client's lifecycle belongs to
// the broker afterwards; Close closes it.
func New(client *redis.Client, opts ...Option) (*Broker, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Broker{
		client:         client,
		label:          o.label,
		maxMessageSize: o.maxMessageSize,
	}, nil
}

// Label reports the instance name used in logs, "high" or "low" in practice.
func (b *Broker) Label() string {
	return b.label
}

// MaxMessageSize reports the per-message size limit in bytes.
func (b *Broker) MaxMessageSize() int {
	return b.maxMessageSize
}

// Enqueue appends one message to the tail of queue, preserving FIFO order
// toward PopToProcessing.
func (b *Broker) Enqueue(ctx context.Context, queue string, message []byte) error {
	if len(message) > b.maxMessageSize {
		return ErrMessageTooLarge
	}
	return b.client.RPush(ctx, queue, message).Err()
}

// EnqueueBatch appends messages in a single pipelined round-trip and returns
// the indexes that were accepted. Oversized messages are skipped; a transport
// failure is returned alongside whatever partial result is known.
func (b *Broker) EnqueueBatch(ctx context.Context, queue string, messages [][]byte) ([]int, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	type staged struct {
		idx int
		cmd *redis.IntCmd
	}

	pipe := b.client.Pipeline()
	cmds := make([]staged, 0, len(messages))
	for i, msg := range messages {
		if len(msg) > b.maxMessageSize {
			continue
		}
		cmds = append(cmds, staged{idx: i, cmd: pipe.RPush(ctx, queue, msg)})
	}
	if len(cmds) == 0 {
		return nil, nil
	}

	_, execErr := pipe.Exec(ctx)

	accepted := make([]int, 0, len(cmds))
	for _, c := range cmds {
		if c.cmd.Err() == nil {
			accepted = append(accepted, c.idx)
		}
	}
	if execErr != nil && !errors.Is(execErr, redis.Nil) {
		return accepted, execErr
	}
	return accepted, nil
}

// PopToProcessing atomically moves the head of queue to the tail of
// processing and returns it, blocking up to timeout. The message survives a
// worker crash because it lands in processing before this call returns.
// Returns ErrNoMessage when the queue stayed empty.
func (b *Broker) PopToProcessing(ctx context.Context, queue, processing string, timeout time.Duration) ([]byte, error) {
	raw, err := b.client.BLMove(ctx, queue, processing, "LEFT", "RIGHT", timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoMessage
		}
		return nil, err
	}
	return []byte(raw), nil
}

// RemoveOne deletes the first occurrence of the exact message bytes from
// queue. Removing a message that is not present is a no-op, which makes
// acknowledgement idempotent across both instances.
func (b *Broker) RemoveOne(ctx context.Context, queue string, message []byte) error {
	return b.client.LRem(ctx, queue, 1, message).Err()
}

// Range returns queue contents between start and stop inclusive, redis
// LRANGE semantics. Read-only; used by the reclaimer to inspect processing.
func (b *Broker) Range(ctx context.Context, queue string, start, stop int64) ([][]byte, error) {
	raw, err := b.client.LRange(ctx, queue, start, stop).Result()
	if err != nil {
		return nil, err
	}

	messages := make([][]byte, len(raw))
	for i, r := range raw {
		messages[i] = []byte(r)
	}
	return messages, nil
}

// Len reports the current queue depth.
func (b *Broker) Len(ctx context.Context, queue string) (int64, error) {
	return b.client.LLen(ctx, queue).Result()
}

// AcquireLease attempts SET NX with a millisecond expiration and reports
// whether the caller now holds the lease.
func (b *Broker) AcquireLease(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return b.client.SetNX(ctx, key, value, ttl).Result()
}

// ExtendLease pushes the lease expiration forward only if the stored value
// still equals value. A false return means the lease was lost.
func (b *Broker) ExtendLease(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	res, err := extendLeaseScript.Run(ctx, b.client, []string{key}, value, ttl.Milliseconds()).Result()
	if err != nil {
		return false, err
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}

// ReleaseLease deletes the lease only if the stored value still equals value.
// Releasing an expired or foreign lease is a no-op.
func (b *Broker) ReleaseLease(ctx context.Context, key, value string) error {
	return releaseLeaseScript.Run(ctx, b.client, []string{key}, value).Err()
}

// SetWithTTL writes an ephemeral key, used for worker heartbeats.
func (b *Broker) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Exists reports whether key is present.
func (b *Broker) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (b *Broker) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

// Healthcheck pings the instance.
func (b *Broker) Healthcheck(ctx context.Context) error {
	return redisdb.Healthcheck(b.client)(ctx)
}

// Close releases the underlying client connections.
func (b *Broker) Close() error {
	return b.client.Close()
}
