package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/taskflow/core/logger"
	"github.com/dmitrymomot/taskflow/core/metrics"
	"github.com/dmitrymomot/taskflow/core/task"
	"github.com/dmitrymomot/taskflow/core/taskstore"
)

// createTaskRequest is the submission body. ScheduledAt is an offset in
// minutes from now, not a timestamp; zero means immediately eligible.
type createTaskRequest struct {
	Title       string        `json:"title"`
	Payload     string        `json:"payload"`
	Priority    task.Priority `json:"priority"`
	ScheduledAt int           `json:"scheduled_at"`
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Priority == "" {
		req.Priority = task.PriorityLow
	}
	if !req.Priority.Valid() {
		respondError(w, http.StatusBadRequest, `priority must be "low" or "high"`)
		return
	}

	t := task.Task{
		Title:    req.Title,
		OwnerID:  ownerFrom(r.Context()),
		Priority: req.Priority,
		Payload:  req.Payload,
	}
	if req.ScheduledAt > 0 {
		at := time.Now().Add(time.Duration(req.ScheduledAt) * time.Minute)
		t.ScheduledAt = &at
	}

	created, err := h.store.Create(r.Context(), t)
	if err != nil {
		if errors.Is(err, taskstore.ErrInvalidTask) {
			respondError(w, http.StatusBadRequest, "invalid task")
			return
		}
		h.log.ErrorContext(r.Context(), "create task failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "could not create task")
		return
	}

	metrics.TasksCreated.WithLabelValues(string(created.Priority)).Inc()
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := taskstore.Filter{
		OwnerID: ownerFrom(r.Context()),
		Search:  q.Get("search"),
	}
	if s := q.Get("status"); s != "" {
		status := task.Status(s)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown status: %s", s))
			return
		}
		f.Status = status
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	tasks, err := h.store.List(r.Context(), f)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list tasks failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list tasks")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, notFoundDetail(chi.URLParam(r, "taskID")))
		return
	}

	t, err := h.store.GetForOwner(r.Context(), id, ownerFrom(r.Context()))
	switch {
	case errors.Is(err, taskstore.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, notFoundDetail(chi.URLParam(r, "taskID")))
	case err != nil:
		h.log.ErrorContext(r.Context(), "get task failed", logger.TaskID(id), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "could not fetch task")
	default:
		respondJSON(w, http.StatusOK, t)
	}
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, notFoundDetail(chi.URLParam(r, "taskID")))
		return
	}

	err := h.store.Delete(r.Context(), id, ownerFrom(r.Context()))
	switch {
	case errors.Is(err, taskstore.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, notFoundDetail(chi.URLParam(r, "taskID")))
	case err != nil:
		h.log.ErrorContext(r.Context(), "delete task failed", logger.TaskID(id), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "could not delete task")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) listTaskEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, notFoundDetail(chi.URLParam(r, "taskID")))
		return
	}

	// Ownership gate: the event log itself is not owner-scoped.
	if _, err := h.store.GetForOwner(r.Context(), id, ownerFrom(r.Context())); err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, notFoundDetail(chi.URLParam(r, "taskID")))
			return
		}
		h.log.ErrorContext(r.Context(), "get task failed", logger.TaskID(id), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "could not fetch task")
		return
	}

	events, err := h.store.ListEvents(r.Context(), id)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list task events failed", logger.TaskID(id), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list task events")
		return
	}
	if events == nil {
		events = []task.Event{}
	}

	respondJSON(w, http.StatusOK, events)
}

func taskIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	return id, err == nil && id > 0
}

func notFoundDetail(id string) string {
	return fmt.Sprintf("task with id: %s not found", id)
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the error as a {"detail": ...} JSON body.
func respondError(w http.ResponseWriter, code int, detail string) {
	respondJSON(w, code, map[string]string{"detail": detail})
}
