package coordinator

import (
	"log/slog"
	"time"
)

// Defaults for knobs not exposed through the environment.
const (
	// DefaultBatchSize caps how many due rows one scheduler pass dispatches.
	DefaultBatchSize = 100
	// DefaultReconcileLimit caps how many QUEUED rows one reconciler pass
	// re-enqueues.
	DefaultReconcileLimit = 100
	// DefaultReclaimScanLimit caps how far into a processing queue the
	// reclaimer looks. Entries beyond it wait for the next pass, so a
	// pathological backlog cannot stall the loop.
	DefaultReclaimScanLimit = 1000
)

// Option configures a coordinator instance.
type Option func(*options)

type options struct {
	instanceID       string
	logger           *slog.Logger
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
}

func defaultOptions() *options {
	return &options{
		leaseTTL:         10 * time.Second,
		renewInterval:    3 * time.Second,
		scheduleInterval: 5 * time.Second,
		reclaimInterval:  10 * time.Second,
		recondInterval:   30 * time.Second,
		reclaimAge:       30 * time.Second,
		batchSize:        DefaultBatchSize,
		reconcileLimit:   DefaultReconcileLimit,
		reclaimScanLimit: DefaultReclaimScanLimit,
		opTimeout:        30 * time.Second,
		shutdownTimeout:  30 * time.Second,
	}
}

// WithInstanceID overrides the generated instance id. Useful in tests where
// leadership must be deterministic.
func WithInstanceID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.instanceID = id
		}
	}
}

// WithLogger sets the coordinator logger. Silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLeaseTTL overrides the leader lease expiration.
func WithLeaseTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.leaseTTL = d
		}
	}
}

// WithRenewInterval overrides the election and renewal tick.
func WithRenewInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.renewInterval = d
		}
	}
}

// WithSchedulerInterval overrides the due-task dispatch tick.
func WithSchedulerInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.scheduleInterval = d
		}
	}
}

// WithReclaimInterval overrides the recovery and reclaim tick.
func WithReclaimInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reclaimInterval = d
		}
	}
}

// WithReconcileInterval overrides the queued-row repair tick.
func WithReconcileInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.recondInterval = d
		}
	}
}

// WithProcessingReclaimAge overrides how long a processing entry may sit
// before it is taken back.
func WithProcessingReclaimAge(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reclaimAge = d
		}
	}
}

// WithBatchSize overrides the scheduler dispatch batch size.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithReconcileLimit overrides the reconciler scan size.
func WithReconcileLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.reconcileLimit = n
		}
	}
}

// WithReclaimScanLimit overrides the processing-queue scan depth.
func WithReclaimScanLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.reclaimScanLimit = n
		}
	}
}

// WithOpTimeout bounds a single loop pass so a hung dependency cannot block
// a loop indefinitely.
func WithOpTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.opTimeout = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight passes.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
