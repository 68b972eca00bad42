package worker

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
	"github.com/dmitrymomot/taskflow/core/metrics"
	"github.com/dmitrymomot/taskflow/core/registry"
	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
	"github.com/dmitrymomot/taskflow/pkg/async"
)

// finalizeTimeout bounds the store writes and the processing ack that follow
// handler execution. These run on a detached context so a shutdown during a
// long handler cannot strand the row in IN_PROGRESS.
const finalizeTimeout = 30 * time.Second

// Store is the task persistence surface the worker drives. Satisfied by
// taskstore.Store and taskstore.Memory.
type Store interface {
	AtomicClaim(ctx context.Context, taskID int64, workerID string, now time.Time) (task.Task, error)
	MarkCompleted(ctx context.Context, taskID int64, result string, now time.Time) error
	MarkForRetry(ctx context.Context, taskID int64, errMsg string, now time.Time, backoff time.Duration) (taskstore.RetryOutcome, error)
	Healthcheck(ctx context.Context) error
}

// Resolver maps task titles to handlers. Satisfied by registry.Registry.
type Resolver interface {
	Resolve(title string) (registry.Handler, error)
}

// Worker claims messages from the broker pair and executes their handlers.
// One worker processes one task at a time; horizontal scale comes from
// running more worker processes.
type Worker struct {
	store    Store
	brokers  broker.Pair
	handlers Resolver
	log      *slog.Logger

	id                string
	pollTimeout       time.Duration
	taskTimeout       time.Duration
	heartbeatInterval time.Duration
	heartbeatTTL      time.Duration
	errorPause        time.Duration
	shutdownTimeout   time.Duration

	mu     sync.RWMutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	busy      atomic.Bool
	processed atomic.Int64
	failed    atomic.Int64
}

// Stats is a point-in-time snapshot of worker state.
type Stats struct {
	WorkerID       string
	IsRunning      bool
	Busy           bool
	TasksProcessed int64
	TasksFailed    int64
}

// New creates a worker over the given store, broker pair, and handler
// registry.
func New(store Store, brokers broker.Pair, handlers Resolver, opts ...Option) (*Worker, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if brokers.High() == nil || brokers.Low() == nil {
		return nil, ErrNilBroker
	}
	if handlers == nil {
		return nil, ErrNilRegistry
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.workerID == "" {
		cfg.workerID = uuid.New().String()[:8]
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Worker{
		store:             store,
		brokers:           brokers,
		handlers:          handlers,
		log:               cfg.logger,
		id:                cfg.workerID,
		pollTimeout:       cfg.pollTimeout,
		taskTimeout:       cfg.taskTimeout,
		heartbeatInterval: cfg.heartbeatInterval,
		heartbeatTTL:      cfg.heartbeatTTL,
		errorPause:        cfg.errorPause,
		shutdownTimeout:   cfg.shutdownTimeout,
	}, nil
}

// NewFromConfig creates a worker with timings taken from environment
// configuration. Explicit options take precedence over config values.
func NewFromConfig(cfg Config, store Store, brokers broker.Pair, handlers Resolver, opts ...Option) (*Worker, error) {
	configOpts := []Option{
		WithHeartbeatInterval(cfg.HeartbeatInterval()),
		WithHeartbeatTTL(cfg.HeartbeatTTL()),
		WithTaskTimeout(cfg.TaskTimeout()),
	}
	return New(store, brokers, handlers, append(configOpts, opts...)...)
}

// ID returns the worker's identity, the value stamped onto claimed rows and
// into the heartbeat key.
func (w *Worker) ID() string { return w.id }

// Start runs the heartbeat and the poll loop. It blocks until the context is
// cancelled and the in-flight task, if any, has been finalized.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.log.InfoContext(ctx, "worker started",
		"worker_id", w.id,
		"task_timeout", w.taskTimeout,
		"heartbeat_interval", w.heartbeatInterval)

	var hb sync.WaitGroup
	hb.Add(1)
	go func() {
		defer hb.Done()
		w.runHeartbeat(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			hb.Wait()
			w.log.Info("worker stopped", "worker_id", w.id)
			return nil
		default:
		}

		if err := w.pollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.log.ErrorContext(ctx, "worker loop error", "worker_id", w.id, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.errorPause):
			}
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight task to finish,
// up to the shutdown timeout.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrNotStarted
	}
	w.cancel()
	w.cancel = nil
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(w.shutdownTimeout):
		return ErrShutdownTimeout
	}
}

// Run starts the worker and stops it when ctx is cancelled. Use with
// errgroup:
//
//	g.Go(worker.Run(ctx))
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- w.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			if err := w.Stop(); err != nil && !errors.Is(err, ErrNotStarted) {
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

// Stats returns a snapshot of worker counters.
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	running := w.cancel != nil
	w.mu.RUnlock()
	return Stats{
		WorkerID:       w.id,
		IsRunning:      running,
		Busy:           w.busy.Load(),
		TasksProcessed: w.processed.Load(),
		TasksFailed:    w.failed.Load(),
	}
}

// Healthcheck reports whether the worker is running and its dependencies are
// reachable.
func (w *Worker) Healthcheck(ctx context.Context) error {
	w.mu.RLock()
	running := w.cancel != nil
	w.mu.RUnlock()
	if !running {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}
	if err := w.store.Healthcheck(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	if err := w.brokers.Healthcheck(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// pollOnce takes at most one message off the brokers and processes it.
// An empty poll cycle is not an error.
func (w *Worker) pollOnce(ctx context.Context) error {
	raw, src, err := w.popNext(ctx)
	if err != nil {
		if errors.Is(err, broker.ErrNoMessage) {
			return nil
		}
		return err
	}

	w.mu.RLock()
	if w.cancel == nil {
		// Shutdown won the race; the entry stays in processing and the
		// reclaimer returns it to the queue.
		w.mu.RUnlock()
		return nil
	}
	w.wg.Add(1)
	w.mu.RUnlock()
	defer w.wg.Done()

	return w.process(ctx, src, raw)
}

// popNext polls high before low, which is the whole priority policy: a
// message on high always beats a message on low at per-poll granularity.
func (w *Worker) popNext(ctx context.Context) ([]byte, *broker.Broker, error) {
	for _, b := range w.brokers.Each() {
		raw, err := b.PopToProcessing(ctx, broker.MainQueue, broker.ProcessingQueue, w.pollTimeout)
		if errors.Is(err, broker.ErrNoMessage) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return raw, b, nil
	}
	return nil, nil, broker.ErrNoMessage
}

// process runs the claim, execute, finalize sequence for one message. The
// processing-queue entry is acknowledged on both instances no matter how the
// sequence ends; the store row, not the broker, carries the outcome.
func (w *Worker) process(ctx context.Context, src *broker.Broker, raw []byte) error {
	defer func() {
		ackCtx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
		defer cancel()
		if err := w.brokers.RemoveProcessing(ackCtx, raw); err != nil {
			w.log.Warn("processing ack failed", "worker_id", w.id, "error", err)
		}
	}()

	msg, err := task.DecodeMessage(raw)
	if err != nil {
		metrics.MalformedMessages.WithLabelValues(src.Label()).Inc()
		w.log.WarnContext(ctx, "dropping malformed message",
			"worker_id", w.id, "broker", src.Label(), "error", err)
		return nil
	}

	claimed, err := w.store.AtomicClaim(ctx, msg.TaskID, w.id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskUnclaimable) {
			// Another worker won, or the task is already terminal. Expected
			// under duplicate messages.
			metrics.ClaimRaces.Inc()
			w.log.DebugContext(ctx, "task not claimable", "worker_id", w.id, "task_id", msg.TaskID)
			return nil
		}
		return err
	}

	w.log.InfoContext(ctx, "task claimed",
		"worker_id", w.id, "task_id", claimed.ID, "title", claimed.Title,
		"retry_count", claimed.RetryCount)

	handler, err := w.handlers.Resolve(msg.Title)
	if err != nil {
		return w.finalize(ctx, claimed, "", err, metrics.OutcomeError)
	}

	start := time.Now()
	result, execErr := w.execute(handler, msg.Payload)

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(execErr, async.ErrTimeout), errors.Is(execErr, context.DeadlineExceeded):
		outcome = metrics.OutcomeTimeout
		execErr = fmt.Errorf("task timed out after %d seconds", int(w.taskTimeout.Seconds()))
	case execErr != nil:
		outcome = metrics.OutcomeError
	}
	metrics.HandlerDuration.WithLabelValues(msg.Title, outcome).Observe(time.Since(start).Seconds())

	return w.finalize(ctx, claimed, registry.FormatResult(result), execErr, outcome)
}

// execute runs the handler under the task timeout. On timeout the awaiter
// returns but the handler goroutine keeps running until the handler honors
// its context; the row is finalized regardless.
func (w *Worker) execute(handler registry.Handler, payload string) (any, error) {
	w.busy.Store(true)
	defer w.busy.Store(false)

	execCtx, cancel := context.WithTimeout(context.Background(), w.taskTimeout)
	defer cancel()

	fut := async.Async(execCtx, payload, func(hctx context.Context, p string) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in handler: %v", r)
			}
		}()
		return handler.Handle(hctx, p)
	})

	return fut.AwaitWithTimeout(w.taskTimeout)
}

// finalize writes the task's outcome to the store: COMPLETED with its result,
// or a retry-accounted failure. Runs on a detached context so cancellation of
// the worker cannot interrupt the state transition.
func (w *Worker) finalize(ctx context.Context, claimed task.Task, result string, execErr error, outcome string) error {
	fctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	now := time.Now().UTC()

	if execErr == nil {
		if err := w.store.MarkCompleted(fctx, claimed.ID, result, now); err != nil {
			return fmt.Errorf("mark task %d completed: %w", claimed.ID, err)
		}
		w.processed.Add(1)
		metrics.TasksCompleted.Inc()
		w.log.InfoContext(ctx, "task completed",
			"worker_id", w.id, "task_id", claimed.ID, "title", claimed.Title)
		return nil
	}

	attempt := claimed.RetryCount + 1
	retry, err := w.store.MarkForRetry(fctx, claimed.ID, execErr.Error(), now, retryBackoff(attempt))
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskTerminal) || errors.Is(err, taskstore.ErrTaskNotFound) {
			w.log.DebugContext(ctx, "task already finalized elsewhere",
				"worker_id", w.id, "task_id", claimed.ID)
			return nil
		}
		return fmt.Errorf("mark task %d for retry: %w", claimed.ID, err)
	}

	if retry.Retried {
		metrics.TasksRetried.Inc()
		w.log.WarnContext(ctx, "task attempt failed",
			"worker_id", w.id, "task_id", claimed.ID, "title", claimed.Title,
			"outcome", outcome, "retry_count", retry.RetryCount,
			"retries_remaining", retry.RetriesRemaining, "error", execErr)
		return nil
	}

	w.failed.Add(1)
	metrics.TasksFailed.Inc()
	w.log.ErrorContext(ctx, "task failed permanently",
		"worker_id", w.id, "task_id", claimed.ID, "title", claimed.Title,
		"outcome", outcome, "retry_count", retry.RetryCount, "error", execErr)
	return nil
}

// retryBackoff spaces attempt n five seconds per attempt, capped at a minute.
func retryBackoff(attempt int) time.Duration {
	return time.Duration(min(60, 5*attempt)) * time.Second
}
