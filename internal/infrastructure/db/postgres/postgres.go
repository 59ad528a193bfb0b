// Package postgres stores accounts and usage logs in PostgreSQL through pgx.
// Schema migrations are embedded and applied with goose on Connect.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	defaultTimeout   = 10 * time.Second
	defaultOpTimeout = 5 * time.Second

	uniqueViolation        = "23505"
	numericValueOutOfRange = "22003"
)

// Config captures the settings for establishing a PostgreSQL pool.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Connect opens a pool, verifies it with a ping and runs pending migrations.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := migrate(connectCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericValueOutOfRange
}

// storeError tags timeouts and connectivity failures as transient.
func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrTransientStore, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func opTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultOpTimeout
	}
	return d
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
