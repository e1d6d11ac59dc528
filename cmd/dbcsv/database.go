package main

import (
	"context"

	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
	"go.nownabe.dev/dbcsv/bigquery"
	"go.nownabe.dev/dbcsv/duckdb"
	"go.nownabe.dev/dbcsv/internal/config"
	"go.nownabe.dev/dbcsv/mysql"
	"go.nownabe.dev/dbcsv/postgres"
)

// openDatabase connects to the configured engine and returns the writer
// options selecting its dialect and executor.
func openDatabase(ctx context.Context, c config.DatabaseConfig) ([]dbcsv.Option, func() error, error) {
	var (
		exec    dbcsv.Executor
		dialect dbcsv.Dialect
		closer  func() error
	)

	switch c.Driver {
	case "mysql":
		e, err := mysql.Open(c.DSN)
		if err != nil {
			return nil, nil, err
		}
		exec, dialect, closer = e, dbcsv.MySQL, e.Close
	case "postgres":
		e, err := postgres.Connect(ctx, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		exec, dialect = e, dbcsv.PostgreSQL
		closer = func() error {
			e.Close()
			return nil
		}
	case "duckdb":
		e, err := duckdb.Open(c.DSN)
		if err != nil {
			return nil, nil, err
		}
		exec, dialect, closer = e, dbcsv.DuckDB, e.Close
	case "bigquery":
		var opts []bigquery.Option
		if c.Bucket != "" {
			opts = append(opts, bigquery.WithBucket(c.Bucket, "dbcsv"))
		}
		l, err := bigquery.NewLoader(ctx, c.Project, c.Dataset, opts...)
		if err != nil {
			return nil, nil, err
		}
		exec, dialect, closer = l, bigquery.Dialect, l.Close
	default:
		return nil, nil, xerrors.Errorf("unknown database driver %q", c.Driver)
	}

	return append(databaseOptions(c, exec), dbcsv.WithDialect(dialect)), closer, nil
}

func databaseOptions(c config.DatabaseConfig, exec dbcsv.Executor) []dbcsv.Option {
	if c.Remote {
		return []dbcsv.Option{dbcsv.WithDB(exec)}
	}
	return []dbcsv.Option{dbcsv.WithLocalDB(exec)}
}

// dialectOf returns the dialect of driver without connecting.
func dialectOf(driver string) (dbcsv.Dialect, error) {
	switch driver {
	case "mysql":
		return dbcsv.MySQL, nil
	case "postgres":
		return dbcsv.PostgreSQL, nil
	case "duckdb":
		return dbcsv.DuckDB, nil
	case "bigquery":
		return bigquery.Dialect, nil
	default:
		return nil, xerrors.Errorf("unknown database driver %q", driver)
	}
}
