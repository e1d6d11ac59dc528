package dbcsv

import (
	"context"
	"database/sql"
)

// Executor runs a bulk-load statement and returns the number of rows the
// engine reports as loaded.
type Executor interface {
	Exec(ctx context.Context, query string) (int64, error)
}

// FileLoader is implemented by executors which need the staged file itself,
// e.g. to stream it to a remote server. StoreCollection prefers LoadFile over
// Exec when the executor provides it.
type FileLoader interface {
	LoadFile(ctx context.Context, l Load) (int64, error)
}

// SQLExecutor adapts a *sql.DB to Executor.
type SQLExecutor struct {
	DB *sql.DB
}

// NewSQLExecutor wraps db.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{DB: db}
}

// Exec executes query and returns the affected row count.
func (e *SQLExecutor) Exec(ctx context.Context, query string) (int64, error) {
	res, err := e.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
