package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksCreated counts accepted submissions by priority.
	TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_tasks_created_total",
		Help: "Tasks accepted through the submission API",
	}, []string{"priority"})

	// TasksScheduled counts rows the scheduler moved from PENDING to QUEUED.
	TasksScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_tasks_scheduled_total",
		Help: "Tasks dispatched to a broker by the scheduler",
	})

	// EnqueueFailures counts messages a broker refused or dropped at enqueue.
	EnqueueFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_enqueue_failures_total",
		Help: "Messages that could not be enqueued; rows stay PENDING",
	}, []string{"broker"})

	// TasksCompleted counts successful handler executions.
	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_tasks_completed_total",
		Help: "Tasks finalized as COMPLETED",
	})

	// TasksFailed counts terminal failures, budget exhaustion included.
	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_tasks_failed_total",
		Help: "Tasks finalized as FAILED",
	})

	// TasksRetried counts handler failures that earned another attempt.
	TasksRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_tasks_retried_total",
		Help: "Tasks rescheduled after a handler failure",
	})

	// TasksRecovered counts rows rescued from dead workers.
	TasksRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_tasks_recovered_total",
		Help: "IN_PROGRESS tasks re-queued after their worker died",
	})

	// MessagesReclaimed counts stale processing entries swept back to the
	// main queue.
	MessagesReclaimed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_messages_reclaimed_total",
		Help: "Stale processing-queue messages returned to the main queue",
	}, []string{"broker"})

	// TasksReconciled counts QUEUED rows re-pushed by the reconciler.
	TasksReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_tasks_reconciled_total",
		Help: "QUEUED tasks re-enqueued by the reconciler",
	})

	// MalformedMessages counts undecodable messages dropped from queues.
	MalformedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_malformed_messages_total",
		Help: "Messages removed because they failed to decode",
	}, []string{"broker"})

	// ClaimRaces counts claims that lost to another actor. Not errors.
	ClaimRaces = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskflow_claim_races_total",
		Help: "Atomic claims that found the task already taken or terminal",
	})

	// HandlerDuration observes wall-clock handler execution time.
	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskflow_handler_duration_seconds",
		Help:    "Handler execution time by task title and outcome",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"title", "outcome"})

	// LeaderStatus is 1 while this coordinator holds the lease.
	LeaderStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskflow_leader",
		Help: "1 when this instance is the elected leader, 0 otherwise",
	})

	// LeadershipTransitions counts lease acquisitions, losses, and releases.
	LeadershipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_leader_transitions_total",
		Help: "Leadership transitions by event",
	}, []string{"event"})

	// QueueDepth samples broker queue lengths, refreshed by the reclaimer.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taskflow_queue_depth",
		Help: "Broker queue depth at the last reclaimer sweep",
	}, []string{"broker", "queue"})

	// HTTPRequests counts API requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskflow_http_requests_total",
		Help: "API requests by method, route pattern, and status code",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes API request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskflow_http_request_duration_seconds",
		Help:    "API request latency by method and route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Leadership event labels for LeadershipTransitions.
const (
	EventAcquired = "acquired"
	EventLost     = "lost"
	EventReleased = "released"
)

// Handler outcome labels for HandlerDuration.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)
