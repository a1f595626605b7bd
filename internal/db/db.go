// Package db opens the Postgres pool shared by the api, migrate, seed and
// importer binaries.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing. The storefront is read-heavy with a small write path, so a
// modest pool with idle reaping is enough.
const (
	maxConns        = 8
	maxConnIdleTime = 5 * time.Minute
	maxConnLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Connect opens a pgx connection pool for the given DSN and verifies
// connectivity with a ping before handing it out.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = maxConns
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.MaxConnLifetime = maxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
