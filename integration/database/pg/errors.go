package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by Connect and Migrate. Wrapped causes are joined
// on, so callers match with errors.Is.
var (
	ErrEmptyConnectionString = errors.New("empty postgres connection string, use DATABASE_URL env var")
	ErrFailedToParseConfig   = errors.New("failed to parse postgres connection config")
	ErrFailedToOpenDB        = errors.New("failed to open postgres connection")
	ErrDBNotReady            = errors.New("postgres did not become ready within the given time period")
	ErrHealthcheckFailed     = errors.New("postgres healthcheck failed")
	ErrFailedToRunMigrations = errors.New("failed to run postgres migrations")
)

// PostgreSQL error codes used for classification.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// IsNotFoundError reports whether err means no rows matched the query.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolationError reports whether err is a foreign key constraint violation.
func IsForeignKeyViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// IsTxClosedError reports whether err indicates the transaction is already closed.
func IsTxClosedError(err error) bool {
	return errors.Is(err, pgx.ErrTxClosed)
}
