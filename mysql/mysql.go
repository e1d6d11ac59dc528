// Package mysql runs dbcsv bulk loads on MySQL and MariaDB servers.
package mysql

import (
	"context"
	"database/sql"

	driver "github.com/go-sql-driver/mysql"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// Executor executes LOAD DATA statements through database/sql.
type Executor struct {
	*dbcsv.SQLExecutor
}

// Open connects to the server described by dsn, e.g. "user:pass@tcp(host:3306)/db".
func Open(dsn string) (*Executor, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse dsn: %w", err)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, xerrors.Errorf("failed to open mysql: %w", err)
	}

	return New(db), nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Executor {
	return &Executor{SQLExecutor: dbcsv.NewSQLExecutor(db)}
}

// LoadFile executes l.Statement. For LOCAL loads the staged file is
// registered with the driver so the server may request it.
func (e *Executor) LoadFile(ctx context.Context, l dbcsv.Load) (int64, error) {
	if l.Local {
		driver.RegisterLocalFile(l.Path)
		defer driver.DeregisterLocalFile(l.Path)
	}

	return e.Exec(ctx, l.Statement)
}

// Close closes the database.
func (e *Executor) Close() error {
	return e.DB.Close()
}
