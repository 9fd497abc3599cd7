// Package postgres persists player progress in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
)

// ErrSchemaMissing is returned by CheckSchema when the progress table has
// not been migrated yet.
var ErrSchemaMissing = errors.New("player_progress table missing, run cmd/migrate")

const applicationName = "dungeon-gameserver"

// Pool is the progress database: one pgx pool and the repositories that
// share it.
type Pool struct {
	db      *pgxpool.Pool
	players *PlayerRepository
}

// NewPool connects to the progress database described by cfg.
//
// Precondition: cfg must have passed config validation.
// Postcondition: Returns a Pool whose server answered a ping, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool for %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return &Pool{db: db, players: NewPlayerRepository(db)}, nil
}

// CheckSchema verifies the migrations have created player_progress.
//
// Postcondition: Returns ErrSchemaMissing when the table does not exist.
func (p *Pool) CheckSchema(ctx context.Context) error {
	var exists bool
	if err := p.db.QueryRow(ctx, `SELECT to_regclass('public.player_progress') IS NOT NULL`).Scan(&exists); err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if !exists {
		return ErrSchemaMissing
	}
	return nil
}

// Players returns the progress repository bound to this pool.
func (p *Pool) Players() *PlayerRepository {
	return p.players
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.db.Ping(ctx)
}

// Monitor pings the database every interval until ctx ends, logging failed
// checks, and then closes the pool. Anything that writes through the pool
// must be stopped before ctx is cancelled.
//
// Precondition: interval > 0.
// Postcondition: the pool is closed; returns ctx.Err().
func (p *Pool) Monitor(ctx context.Context, interval, timeout time.Duration, logger *zap.Logger) error {
	defer p.Close()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Health(ctx, timeout); err != nil {
				logger.Warn("database health check failed", zap.Error(err))
			}
		}
	}
}

// Close releases all connections. The pool cannot be used afterwards.
func (p *Pool) Close() {
	p.db.Close()
}

// DB returns the underlying pgx pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.db
}
