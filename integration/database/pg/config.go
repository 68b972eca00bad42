package pg

import "time"

// Config holds PostgreSQL connection and pool settings.
// DATABASE_URL is the only required value; the rest have production-safe defaults.
type Config struct {
	ConnectionString  string        `env:"DATABASE_URL,required"`
	MaxConns          int           `env:"PG_MAX_CONNS" envDefault:"10"`
	MinConns          int           `env:"PG_MIN_CONNS" envDefault:"5"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
	MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}
