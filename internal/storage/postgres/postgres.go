// Package postgres persists the bestiary and battle results in PostgreSQL
// using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/candlelight/internal/config"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so a repository can
// run against the pool or inside a caller's transaction. Begin on a pgx.Tx
// opens a savepoint.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool owns the pgx connection pool shared by the repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg and pings it.
//
// Precondition: cfg has passed config validation.
// Postcondition: Returns a Pool that answered a ping, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	start := time.Now()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Pool{pool: pool}, nil
}

// WrapPool adopts a pool opened elsewhere, such as by a test container.
func WrapPool(pool *pgxpool.Pool) *Pool {
	return &Pool{pool: pool}
}

// Health pings the database, giving up after timeout. Commands call it
// before long imports so a dead database fails fast.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases every connection. The Pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pool for the repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
