package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies all pending goose migrations from fsys against the pool.
// Safe to run concurrently from multiple processes: goose serializes on its
// version table, named by cfg.MigrationsTable.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log *slog.Logger) error {
	if pool == nil {
		return errors.Join(ErrFailedToRunMigrations, errors.New("nil connection pool"))
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log: log})
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToRunMigrations, err)
	}

	// goose drives database/sql; borrow a stdlib view of the pgx pool.
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToRunMigrations, err)
	}

	return nil
}

// gooseLogger adapts slog to the goose logging interface.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	if l.log != nil {
		l.log.Info(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
	}
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	if l.log != nil {
		l.log.Error(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
	}
}
