package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	schemaVersionTable = "public.schema_version"

	// advisory lock key, "agenda" in ASCII hex
	migrationLockKey     = 0x6167656e6461
	lockReleaseTimeout   = 5 * time.Second
	defaultMaxConnIdle   = 5 * time.Minute
	defaultHealthPeriod  = 30 * time.Second
	minPoolConns         = 2
)

// PoolOptions tunes the pool. Schedule writes happen once per creator during
// a fan-out, so MaxConns should be at least the fetch concurrency.
type PoolOptions struct {
	MaxConns int32
	Tracer   pgx.QueryTracer
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = max(opts.MaxConns, minPoolConns)
	}
	poolCfg.MaxConnIdleTime = defaultMaxConnIdle
	poolCfg.HealthCheckPeriod = defaultHealthPeriod
	if opts.Tracer != nil {
		poolCfg.ConnConfig.Tracer = opts.Tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", append(describeTarget(databaseURL), "max_conns", poolCfg.MaxConns)...)
	return pool, nil
}

// describeTarget returns loggable attributes for the DSN without credentials.
func describeTarget(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Host == "" {
		return []any{"target", "unparsed"}
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		mode = "prefer (default)"
	}
	return []any{"host", u.Host, "database", strings.TrimPrefix(u.Path, "/"), "sslmode", mode}
}

// Migrate applies the embedded schema. Concurrent instances serialise on a
// session advisory lock so only one runs the migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	return withAdvisoryLock(ctx, conn.Conn(), migrationLockKey, func() error {
		return migrateSchema(ctx, conn.Conn())
	})
}

func migrateSchema(ctx context.Context, conn *pgx.Conn) error {
	migrationFS, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	migrator, err := migrate.NewMigrator(ctx, conn, schemaVersionTable)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.LoadMigrations(migrationFS); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	migrator.OnStart = func(sequence int32, name, direction, _ string) {
		slog.Info("Applying migration", "sequence", sequence, "name", name, "direction", direction)
	}

	from, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	to := int32(len(migrator.Migrations))
	if to != from {
		slog.Info("Schema migrated", "from", from, "to", to)
	}
	return nil
}

func withAdvisoryLock(ctx context.Context, conn *pgx.Conn, key int64, fn func() error) error {
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	defer func() {
		// the caller's ctx may already be cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", key); err != nil {
			slog.Error("Failed to release advisory lock", "key", key, "error", err)
		}
	}()

	return fn()
}

// Ping adapts the pool to a readiness check.
func Ping(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
		return nil
	}
}
