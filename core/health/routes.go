package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the operational surface served by the coordinator and
// worker processes: liveness and readiness probes plus the Prometheus
// endpoint.
func Routes(log *slog.Logger, checks ...Check) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", Liveness())
	r.Get("/readyz", Readiness(log, checks...))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
