// Package pg provides PostgreSQL connection management with migrations and
// health checking for the task store.
//
// This package wraps the pgx driver with application-level retry logic,
// connection pool tuning, and integrated migration support using goose.
//
// # Connecting
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		// DATABASE_URL missing, unreachable server, or exhausted retries
//	}
//	defer pool.Close()
//
// Connect retries with exponential backoff (cfg.RetryAttempts times starting
// at cfg.RetryInterval) and verifies the pool with a ping before returning.
//
// # Migrations
//
// Migrations are embedded goose SQL files applied at startup:
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		// exit non-zero; serving with a stale schema is worse than not serving
//	}
//
// # Transactions
//
// Store methods participate in an ambient transaction carried by the context.
// WithTx stores a pgx.Tx in the context; TxFromContext retrieves it. Code that
// needs multiple store calls inside one transaction begins it once, stashes it,
// and passes the derived context down:
//
//	tx, err := pool.Begin(ctx)
//	...
//	txCtx := pg.WithTx(ctx, tx)
//	rows, err := store.ClaimDueBatch(txCtx, now, 100)
//
// # Error Classification
//
// Use the classification helpers rather than matching error strings:
//
//	if pg.IsDuplicateKeyError(err) { ... }
//	if pg.IsNotFoundError(err) { ... }
//
// Healthcheck(pool) returns a func(context.Context) error for readiness probes.
package pg
