package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YelzhanWeb/bloompizza/internal/config"
)

// Querier is what pool and transaction have in common.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
}

// DB is the slice of pgxpool the repositories use. Tests substitute a fake.
type DB interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Close()
}

type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
}

type Row interface {
	Scan(dest ...any) error
}

type CommandTag interface {
	RowsAffected() int64
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type querier struct {
	q pgxQuerier
}

func (q querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return q.q.Query(ctx, sql, args...)
}

func (q querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return q.q.QueryRow(ctx, sql, args...)
}

func (q querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return q.q.Exec(ctx, sql, args...)
}

type pool struct {
	querier
	p *pgxpool.Pool
}

type tx struct {
	querier
	t pgx.Tx
}

// Connect opens a pool for cfg and checks it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.HealthCheckPeriod = 30 * time.Second

	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &pool{querier: querier{q: p}, p: p}, nil
}

func (p *pool) Begin(ctx context.Context) (Tx, error) {
	t, err := p.p.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{querier: querier{q: t}, t: t}, nil
}

func (p *pool) Close() { p.p.Close() }

func (t *tx) Commit(ctx context.Context) error   { return t.t.Commit(ctx) }
func (t *tx) Rollback(ctx context.Context) error { return t.t.Rollback(ctx) }

// inTx runs fn in a transaction, committing when it returns nil.
func inTx(ctx context.Context, db DB, fn func(Tx) error) error {
	t, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(t); err != nil {
		_ = t.Rollback(ctx)
		return err
	}
	if err := t.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
