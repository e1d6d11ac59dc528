// Package duckdb runs dbcsv bulk loads on an embedded DuckDB database.
//
// DuckDB reads the staged file itself, so writers should use
// dbcsv.WithLocalDB together with dbcsv.WithDialect(dbcsv.DuckDB).
package duckdb

import (
	"database/sql"

	_ "github.com/marcboeker/go-duckdb"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// Executor executes read_csv inserts through database/sql.
type Executor struct {
	*dbcsv.SQLExecutor
}

// Open opens the database file at path. An empty path opens an in-memory database.
func Open(path string) (*Executor, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open duckdb: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to ping duckdb: %w", err)
	}

	return &Executor{SQLExecutor: dbcsv.NewSQLExecutor(db)}, nil
}

// Close closes the database.
func (e *Executor) Close() error {
	return e.DB.Close()
}
