package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

func newStatementCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "statement <collection> <table>",
		Short: "Print the load statement of an existing collection",
		Long: `Print the statement that would load a collection into a table.

<collection> is a collection name in tmp_dir or the path of a .csv file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			dialect, err := dialectOf(cfg.Database.Driver)
			if err != nil {
				return err
			}

			opts := append([]dbcsv.Option{
				dbcsv.WithTmpDir(cfg.TmpDir),
				dbcsv.WithDialect(dialect),
			}, databaseOptions(cfg.Database, offlineExecutor{})...)

			w, err := dbcsv.New(opts...)
			if err != nil {
				return err
			}

			if err := w.OpenCollection(args[0]); err != nil {
				return err
			}
			defer w.Detach()

			stmt, err := w.Statement(args[1])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), stmt)

			return nil
		},
	}
}

// offlineExecutor lets a Writer know whether the database is remote without
// connecting to it.
type offlineExecutor struct{}

func (offlineExecutor) Exec(context.Context, string) (int64, error) {
	return 0, xerrors.New("not connected")
}
