package dbcsv_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.nownabe.dev/dbcsv"
	"go.nownabe.dev/dbcsv/mysql"
)

func Example() {
	ctx := context.Background()

	db, err := mysql.Open(os.Getenv("MYSQL_DSN"))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	w, err := dbcsv.New(dbcsv.WithDB(db))
	if err != nil {
		panic(err)
	}

	if err := w.StartCollection("orders", []string{"id", "amount"}); err != nil {
		panic(err)
	}
	defer w.RemoveCollection()

	for _, r := range [][]string{{"1", "100"}, {"2", "250"}} {
		if err := w.AppendData(r); err != nil {
			panic(err)
		}
	}

	if err := w.StoreCollection(ctx, "orders"); err != nil {
		panic(err)
	}

	n, _ := w.LastResultCount()
	fmt.Printf("%d rows loaded\n", n)
}

func ExampleWriter_Statement() {
	dir, err := os.MkdirTemp("", "dbcsv")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	w, err := dbcsv.New(dbcsv.WithTmpDir(dir), dbcsv.WithDialect(dbcsv.PostgreSQL))
	if err != nil {
		panic(err)
	}

	if err := w.StartCollection("orders", []string{"id", "amount"}); err != nil {
		panic(err)
	}
	defer w.RemoveCollection()

	stmt, err := w.Statement("orders")
	if err != nil {
		panic(err)
	}

	fmt.Println(strings.ReplaceAll(stmt, w.CollectionPath(), "<path>"))
	// Output:
	// COPY orders ("id","amount") FROM '<path>' WITH (FORMAT csv, HEADER true, DELIMITER ',', QUOTE '"')
}
