// Package database is the Persistence Gateway: the only component that
// talks to PostgreSQL, backed by pgx/pgxpool with hand-authored SQL
// migrations embedded and applied via golang-migrate at startup.
package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations
var migrationsFS embed.FS

// defaultAcquireTimeout bounds how long a caller will wait for a pool slot
// to free up, so a burst of concurrent orchestration runs fails fast
// instead of queuing indefinitely behind a saturated pool.
const defaultAcquireTimeout = 3 * time.Second

// Config holds pool sizing on top of the connection DSN.
type Config struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
}

// Client wraps a pgxpool.Pool with the Gateway's query methods.
type Client struct {
	pool *timedPool
}

// Pool returns the underlying pool, for health checks.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool.raw
}

// Close releases all pooled connections.
func (c *Client) Close() {
	c.pool.raw.Close()
}

// NewClient opens a pooled connection, runs pending migrations, and returns
// a ready Client. It does not retry on failure — callers that need
// start-up resilience should use WaitReady first.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}

	return &Client{pool: &timedPool{raw: pool, timeout: acquireTimeout}}, nil
}

// timedPool wraps a pgxpool.Pool so every query the Gateway issues carries a
// bounded wait for a connection, instead of queuing behind a saturated pool
// indefinitely. The deadline is deliberately never canceled early: QueryRow
// and Query hand back a lazily-scanned Row/Rows that the caller reads after
// this wrapper returns, so an eager cancel would invalidate the context
// before Scan/Next ever runs. Letting the timer expire on its own is the
// correct and safe way to bound pgxpool's implicit acquire-then-execute
// call, at the cost of also bounding the query's own execution time.
type timedPool struct {
	raw     *pgxpool.Pool
	timeout time.Duration
}

func (p *timedPool) withDeadline(ctx context.Context) context.Context {
	ctx, _ = context.WithTimeout(ctx, p.timeout)
	return ctx
}

func (p *timedPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.raw.QueryRow(p.withDeadline(ctx), sql, args...)
}

func (p *timedPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.raw.Query(p.withDeadline(ctx), sql, args...)
}

func (p *timedPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.raw.Exec(p.withDeadline(ctx), sql, args...)
}

func (p *timedPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.raw.Begin(p.withDeadline(ctx))
}

func (p *timedPool) Ping(ctx context.Context) error {
	return p.raw.Ping(p.withDeadline(ctx))
}

func (p *timedPool) Stat() *pgxpool.Stat {
	return p.raw.Stat()
}

// WaitReady polls the database until it accepts connections or timeout
// elapses, for use at service startup when Postgres may still be coming up
// (e.g. in a compose/k8s dependency race).
func WaitReady(ctx context.Context, databaseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		pool, err := pgxpool.New(ctx, databaseURL)
		if err == nil {
			pingErr := pool.Ping(ctx)
			pool.Close()
			if pingErr == nil {
				return nil
			}
			lastErr = pingErr
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return fmt.Errorf("database not ready after %s: %w", timeout, lastErr)
}

// runMigrations applies pending migrations from the embedded migrations
// directory, mirroring the teacher's go:embed + golang-migrate approach.
func runMigrations(databaseURL string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
