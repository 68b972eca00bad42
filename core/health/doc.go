// Package health provides the liveness and readiness HTTP handlers served
// by every process on /healthz and /readyz.
//
// Liveness reports only that the process is serving. Readiness runs a probe
// per dependency and degrades to 503 when any of them fails:
//
//	mux.Get("/healthz", health.Liveness())
//	mux.Get("/readyz", health.Readiness(log,
//		health.Check{Name: "database", Probe: pg.Healthcheck(pool)},
//		health.Check{Name: "redis", Probe: redis.Healthcheck(client)},
//	))
//
// Probes follow the func(context.Context) error signature exposed by the
// pg and redis integration packages.
package health
