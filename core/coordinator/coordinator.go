package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/taskflow/core/broker"
	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
)

// Store is the task persistence surface the coordinator drives. Satisfied
// by taskstore.Store and taskstore.Memory.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	ClaimDueBatch(ctx context.Context, now time.Time, limit int) ([]task.Task, error)
	BatchUpdateStatus(ctx context.Context, ids []int64, status task.Status, now time.Time) error
	ListInProgress(ctx context.Context) ([]task.Task, error)
	ListQueued(ctx context.Context, limit int) ([]task.Task, error)
	RequeueDead(ctx context.Context, taskID int64, reason string, now time.Time) (task.Task, taskstore.RetryOutcome, error)
	Requeue(ctx context.Context, taskID int64, now time.Time) error
	Get(ctx context.Context, taskID int64) (task.Task, error)
	Healthcheck(ctx context.Context) error
}

// Coordinator runs the control-plane loops: leader election, due-task
// dispatch, dead-worker recovery, processing-queue reclaim, and queued-row
// reconciliation. Any number of instances may run concurrently; only the
// current leader executes the work loops.
type Coordinator struct {
	store   Store
	brokers broker.Pair
	log     *slog.Logger

	instanceID       string
	leaseTTL         time.Duration
	renewInterval    time.Duration
	scheduleInterval time.Duration
	reclaimInterval  time.Duration
	recondInterval   time.Duration
	reclaimAge       time.Duration
	batchSize        int
	reconcileLimit   int
	reclaimScanLimit int
	opTimeout        time.Duration
	shutdownTimeout  time.Duration

	mu     sync.RWMutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	leader    atomic.Bool
	activeOps atomic.Int32

	scheduled atomic.Int64
	recovered atomic.Int64
	reclaimed atomic.Int64
	repaired  atomic.Int64
}

// Stats is a point-in-time snapshot of coordinator state.
type Stats struct {
	InstanceID        string
	IsLeader          bool
	IsRunning         bool
	TasksScheduled    int64
	TasksRecovered    int64
	MessagesReclaimed int64
	TasksReconciled   int64
	ActiveOps         int32
}

// New creates a coordinator over the given store and broker pair.
func New(store Store, brokers broker.Pair, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if brokers.High() == nil || brokers.Low() == nil {
		return nil, ErrNilBroker
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.instanceID == "" {
		cfg.instanceID = uuid.New().String()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Coordinator{
		store:            store,
		brokers:          brokers,
		log:              cfg.logger,
		instanceID:       cfg.instanceID,
		leaseTTL:         cfg.leaseTTL,
		renewInterval:    cfg.renewInterval,
		scheduleInterval: cfg.scheduleInterval,
		reclaimInterval:  cfg.reclaimInterval,
		recondInterval:   cfg.recondInterval,
		reclaimAge:       cfg.reclaimAge,
		batchSize:        cfg.batchSize,
		reconcileLimit:   cfg.reconcileLimit,
		reclaimScanLimit: cfg.reclaimScanLimit,
		opTimeout:        cfg.opTimeout,
		shutdownTimeout:  cfg.shutdownTimeout,
	}, nil
}

// NewFromConfig creates a coordinator with intervals taken from environment
// configuration. Explicit options take precedence over config values.
func NewFromConfig(cfg Config, store Store, brokers broker.Pair, opts ...Option) (*Coordinator, error) {
	configOpts := []Option{
		WithLeaseTTL(cfg.LeaseTTL()),
		WithRenewInterval(cfg.RenewInterval()),
		WithSchedulerInterval(cfg.SchedulerInterval()),
		WithReclaimInterval(cfg.ReclaimInterval()),
		WithReconcileInterval(cfg.ReconcileInterval()),
		WithProcessingReclaimAge(cfg.ProcessingReclaimAge()),
	}
	return New(store, brokers, append(configOpts, opts...)...)
}

// InstanceID returns the identity used for leader election.
func (c *Coordinator) InstanceID() string { return c.instanceID }

// IsLeader reports whether this instance currently holds the leader lease.
func (c *Coordinator) IsLeader() bool { return c.leader.Load() }

// Start launches the election loop and the four work loops. It blocks until
// the context is cancelled and all loops have drained.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.log.InfoContext(ctx, "coordinator started",
		"instance_id", c.instanceID,
		"lease_ttl", c.leaseTTL,
		"renew_interval", c.renewInterval)

	var loops sync.WaitGroup
	loops.Add(5)
	go func() {
		defer loops.Done()
		c.runLoop(ctx, "election", c.renewInterval, false, c.maintainLease)
	}()
	go func() {
		defer loops.Done()
		c.runLoop(ctx, "scheduler", c.scheduleInterval, true, c.dispatchDue)
	}()
	go func() {
		defer loops.Done()
		c.runLoop(ctx, "recovery", c.reclaimInterval, true, c.recoverDead)
	}()
	go func() {
		defer loops.Done()
		c.runLoop(ctx, "reclaimer", c.reclaimInterval, true, c.reclaimProcessing)
	}()
	go func() {
		defer loops.Done()
		c.runLoop(ctx, "reconciler", c.recondInterval, true, c.reconcileQueued)
	}()
	loops.Wait()

	if c.leader.Load() {
		relinquishCtx, relinquishCancel := context.WithTimeout(context.Background(), 5*time.Second)
		c.relinquish(relinquishCtx)
		relinquishCancel()
	}
	c.log.Info("coordinator stopped", "instance_id", c.instanceID)
	return nil
}

// Stop signals the loops to exit and waits for in-flight passes to finish,
// up to the shutdown timeout.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return ErrNotStarted
	}
	c.cancel()
	c.cancel = nil
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(c.shutdownTimeout):
		return ErrShutdownTimeout
	}
}

// Run starts the coordinator and stops it when ctx is cancelled. Use with
// errgroup:
//
//	g.Go(coord.Run(ctx))
func (c *Coordinator) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			if err := c.Stop(); err != nil && !errors.Is(err, ErrNotStarted) {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	}
}

// Stats returns a snapshot of coordinator counters.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	running := c.cancel != nil
	c.mu.RUnlock()
	return Stats{
		InstanceID:        c.instanceID,
		IsLeader:          c.leader.Load(),
		IsRunning:         running,
		TasksScheduled:    c.scheduled.Load(),
		TasksRecovered:    c.recovered.Load(),
		MessagesReclaimed: c.reclaimed.Load(),
		TasksReconciled:   c.repaired.Load(),
		ActiveOps:         c.activeOps.Load(),
	}
}

// Healthcheck reports whether the coordinator is running and its
// dependencies are reachable.
func (c *Coordinator) Healthcheck(ctx context.Context) error {
	c.mu.RLock()
	running := c.cancel != nil
	c.mu.RUnlock()
	if !running {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}
	if err := c.store.Healthcheck(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	if err := c.brokers.Healthcheck(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// runLoop executes pass immediately and then on every tick until ctx is
// cancelled. Leader-gated loops skip the pass while this instance does not
// hold the lease.
func (c *Coordinator) runLoop(ctx context.Context, name string, interval time.Duration, leaderOnly bool, pass func(ctx context.Context) error) {
	run := func() {
		if leaderOnly && !c.leader.Load() {
			return
		}
		if err := c.runGuarded(pass); err != nil && !errors.Is(err, context.Canceled) {
			c.log.ErrorContext(ctx, "coordinator pass failed", "loop", name, "error", err)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// runGuarded runs one pass with shutdown accounting. The pass gets its own
// timeout-bounded context so a cancelled coordinator context does not abort
// writes mid-flight. A panicking pass surfaces as an error, never as a
// crashed loop.
func (c *Coordinator) runGuarded(pass func(ctx context.Context) error) (err error) {
	c.mu.RLock()
	if c.cancel == nil {
		c.mu.RUnlock()
		return nil
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	c.activeOps.Add(1)
	defer c.activeOps.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pass panicked: %v", r)
		}
	}()

	opCtx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()
	return pass(opCtx)
}
