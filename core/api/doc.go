// Package api serves the task management HTTP surface.
//
// Ownership comes from the X-Owner-ID header; requests without it receive
// 401. Task routes are owner-scoped throughout: reads, deletes, and the
// event history all 404 for tasks the caller does not own.
//
//	handler, err := api.New(store,
//		api.WithLogger(log),
//		api.WithReadiness(
//			health.Check{Name: "database", Probe: pg.Healthcheck(pool)},
//			health.Check{Name: "redis", Probe: redis.Healthcheck(client)},
//		),
//	)
//	if err != nil {
//		return err
//	}
//	srv.Start(ctx, handler.Router())
//
// Submissions create PENDING rows only. Dispatch to the brokers is the
// coordinator's job; the API never touches Redis.
package api
