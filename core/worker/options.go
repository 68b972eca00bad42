package worker

import (
	"log/slog"
	"time"
)

// Option configures a worker instance.
type Option func(*options)

type options struct {
	workerID          string
	logger            *slog.Logger
	pollTimeout       time.Duration
	taskTimeout       time.Duration
	heartbeatInterval time.Duration
	heartbeatTTL      time.Duration
	errorPause        time.Duration
	shutdownTimeout   time.Duration
}

func defaultOptions() *options {
	return &options{
		pollTimeout:       time.Second,
		taskTimeout:       180 * time.Second,
		heartbeatInterval: 3 * time.Second,
		heartbeatTTL:      10 * time.Second,
		errorPause:        2 * time.Second,
		shutdownTimeout:   30 * time.Second,
	}
}

// WithWorkerID overrides the generated worker id. Useful in tests where
// heartbeat keys must be predictable.
func WithWorkerID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.workerID = id
		}
	}
}

// WithLogger sets the worker logger. Silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPollTimeout overrides how long one blocking pop waits per broker.
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollTimeout = d
		}
	}
}

// WithTaskTimeout overrides the per-task execution budget.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// WithHeartbeatInterval overrides the liveness refresh tick.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatInterval = d
		}
	}
}

// WithHeartbeatTTL overrides the liveness key expiration.
func WithHeartbeatTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatTTL = d
		}
	}
}

// WithErrorPause overrides how long the loop sleeps after an unexpected
// error before polling again.
func WithErrorPause(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.errorPause = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the in-flight task.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
