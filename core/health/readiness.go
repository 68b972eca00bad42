package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/taskflow/core/logger"
)

// Check probes a single named dependency.
type Check struct {
	Name  string
	Probe func(context.Context) error
}

// Readiness verifies all registered dependencies. Returns 200 with every
// dependency reported as "connected", or 503 with the failing dependency's
// error once any probe fails.
//
// Example:
//
//	mux.Get("/readyz", health.Readiness(log,
//		health.Check{Name: "database", Probe: pg.Healthcheck(pool)},
//		health.Check{Name: "redis", Probe: redis.Healthcheck(client)},
//	))
func Readiness(log *slog.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := make(map[string]string, len(checks)+1)
		result["status"] = "ok"
		code := http.StatusOK

		for _, c := range checks {
			if err := c.Probe(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					logger.Component(c.Name), logger.Error(err))
				result[c.Name] = err.Error()
				result["status"] = "error"
				code = http.StatusServiceUnavailable
				continue
			}
			result[c.Name] = "connected"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(result)
	}
}
