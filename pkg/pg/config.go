package pg

import "time"

// Config controls the central connection pool and migration layout. Per-tenant
// pools reuse the pool limits but take their DSN from the tenant registry.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL,required"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`

	CentralMigrationsPath string `env:"PG_CENTRAL_MIGRATIONS_PATH" envDefault:"migrations/central"`
	TenantMigrationsPath  string `env:"PG_TENANT_MIGRATIONS_PATH" envDefault:"migrations/tenant"`
	MigrationsTable       string `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}
