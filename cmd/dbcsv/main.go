// Command dbcsv stages files as CSV collections and bulk loads them into a
// database table.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv/internal/config"
)

const defaultConfigPath = "dbcsv.yaml"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "dbcsv",
		Short: "Bulk load files into database tables through staged CSV collections",
		Long: `dbcsv converts files into CSV collections in a temporary directory and
loads every collection with a single bulk-load statement (LOAD DATA, COPY,
read_csv or a BigQuery load job).

Commands:
  import     Import files once
  watch      Import files as they appear in a directory
  statement  Print the load statement of an existing collection`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path of the YAML configuration")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return loadConfig(configPath, cmd.Flags().Changed("config"))
	}

	rootCmd.AddCommand(newImportCommand(load))
	rootCmd.AddCommand(newWatchCommand(load))
	rootCmd.AddCommand(newStatementCommand(load))

	return rootCmd
}

type configLoader func(*cobra.Command) (*config.Config, error)

// loadConfig falls back to the defaults when the default file does not exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

func newLogger(c config.LogConfig) zerolog.Logger {
	var logger zerolog.Logger
	if c.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
