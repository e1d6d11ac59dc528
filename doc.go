/*

Package dbcsv stages records in CSV files ("collections") and loads each
file into a database table with one bulk-load statement, such as MySQL's
LOAD DATA INFILE, instead of inserting rows one by one.

Getting started

A collection is started with the names of its fields, which become the
header line. Rows are appended, then the collection is stored into a table.

	package main

	import (
		"context"

		"go.nownabe.dev/dbcsv"
		"go.nownabe.dev/dbcsv/mysql"
	)

	func main() {
		ctx := context.Background()

		db, err := mysql.Open("user:pass@tcp(db:3306)/shop")
		if err != nil {
			panic(err)
		}

		w, err := dbcsv.New(
			dbcsv.WithTmpDir("/var/tmp/staging"),
			dbcsv.WithBufferSize(64*1024),
			dbcsv.WithDB(db), // the database runs elsewhere: LOAD DATA LOCAL INFILE
		)
		if err != nil {
			panic(err)
		}

		if err := w.StartCollection("orders", []string{"id", "customer", "note"}); err != nil {
			panic(err)
		}
		if err := w.AppendData([]string{"1", "alice", `C:\orders\1.pdf`}); err != nil {
			panic(err)
		}
		if err := w.StoreCollection(ctx, "orders"); err != nil {
			panic(err)
		}

		n, _ := w.LastResultCount()
		println(n, "rows loaded")

		_ = w.RemoveCollection()
	}

Collections

A Writer tracks at most one collection. StartCollection creates a new file
and OpenCollection reopens an existing one for appending, by name or by the
path of its file. CloseCollection flushes and closes the file but keeps it
attached so that StoreCollection and RemoveCollection still work on it.

Dialects

The bulk-load statement and the escaping of field values depend on the
database engine. MySQL is the default; PostgreSQL and DuckDB dialects are
provided and the bigquery subpackage brings its own.

*/
package dbcsv
