package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/taskflow/core/health"
	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
)

// Store is the task store surface the API depends on. *taskstore.Store and
// *taskstore.Memory both satisfy it.
type Store interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetForOwner(ctx context.Context, taskID int64, ownerID string) (task.Task, error)
	List(ctx context.Context, f taskstore.Filter) ([]task.Task, error)
	Delete(ctx context.Context, taskID int64, ownerID string) error
	ListEvents(ctx context.Context, taskID int64) ([]task.Event, error)
}

// Handler serves the task management API.
type Handler struct {
	store  Store
	log    *slog.Logger
	checks []health.Check
}

// Option configures the API handler.
type Option func(*Handler)

// WithLogger sets the logger for request logging and error reporting.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithReadiness registers dependency probes served on /readyz.
func WithReadiness(checks ...health.Check) Option {
	return func(h *Handler) {
		h.checks = append(h.checks, checks...)
	}
}

// New creates an API handler backed by store.
func New(store Store, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	h := &Handler{
		store: store,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Router assembles the full serving surface: task routes behind owner
// authentication, health probes, and the Prometheus endpoint.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverPanics(h.log))
	r.Use(measure)
	r.Use(requestLogger(h.log))

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(h.log, h.checks...))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/tasks", func(r chi.Router) {
		r.Use(requireOwner)
		r.Post("/", h.createTask)
		r.Get("/", h.listTasks)
		r.Get("/{taskID}", h.getTask)
		r.Delete("/{taskID}", h.deleteTask)
		r.Get("/{taskID}/events", h.listTaskEvents)
	})

	return r
}
