// Package postgres runs dbcsv bulk loads on PostgreSQL with COPY.
package postgres

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// Executor executes COPY statements through a pgx connection pool. Local
// loads stream the staged file over the connection (COPY ... FROM STDIN).
type Executor struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for url and checks the connection.
func Connect(ctx context.Context, url string) (*Executor, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, xerrors.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, xerrors.Errorf("failed to ping database: %w", err)
	}

	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

// Pool returns the underlying pool.
func (e *Executor) Pool() *pgxpool.Pool {
	return e.pool
}

func (e *Executor) Exec(ctx context.Context, query string) (int64, error) {
	tag, err := e.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (e *Executor) LoadFile(ctx context.Context, l dbcsv.Load) (int64, error) {
	if !l.Local {
		return e.Exec(ctx, l.Statement)
	}

	f, err := os.Open(l.Path)
	if err != nil {
		return 0, xerrors.Errorf("failed to open %s: %w", l.Path, err)
	}
	defer f.Close()

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return 0, xerrors.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, f, l.Statement)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// Close closes the pool.
func (e *Executor) Close() {
	e.pool.Close()
}
