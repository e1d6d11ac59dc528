package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
	"go.nownabe.dev/dbcsv/importer"
	"go.nownabe.dev/dbcsv/internal/config"
)

func newImportCommand(load configLoader) *cobra.Command {
	var (
		adhoc      config.HandlerConfig
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import files into their tables",
		Long: `Import every file with the handlers whose pattern matches its path.

With --table the configured handlers are ignored and every file is imported
into that table.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			if adhoc.Table != "" {
				adhoc.Name = "import"
				adhoc.Pattern = ".*"
				cfg.Handlers = []config.HandlerConfig{adhoc}
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if len(cfg.Handlers) == 0 {
				return xerrors.New("no handlers: configure handlers or pass --table")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.ErrOrStderr()
			if noProgress {
				out = io.Discard
			}
			n := &progressNotifier{bar: newProgressBar(len(args), out)}

			notifier, err := withSlack(cfg.Slack, n)
			if err != nil {
				return err
			}

			imp, cleanup, err := newImporter(ctx, cfg, notifier)
			if err != nil {
				return err
			}
			defer cleanup()

			events := make([]importer.Event, len(args))
			for i, a := range args {
				events[i] = importer.Event{Name: a}
			}

			if err := imp.HandleAll(ctx, events); err != nil {
				return err
			}
			_ = n.bar.Finish()

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows from %d files\n", n.rows.Load(), n.files.Load())

			return nil
		},
	}

	cmd.Flags().StringVarP(&adhoc.Table, "table", "t", "", "destination table for every file")
	cmd.Flags().StringSliceVarP(&adhoc.Fields, "fields", "f", nil, "column names; the first row is the header when omitted")
	cmd.Flags().StringVar(&adhoc.Format, "format", config.FormatCSV, "source format: csv, xls or xlsx")
	cmd.Flags().StringVar(&adhoc.Sheet, "sheet", "", "sheet of xls (index) or xlsx (name) sources")
	cmd.Flags().StringVar(&adhoc.Encoding, "encoding", "", "source encoding, e.g. shift_jis")
	cmd.Flags().IntVar(&adhoc.SkipLeadingRows, "skip", 0, "leading rows to skip")
	cmd.Flags().BoolVar(&adhoc.KeepStaged, "keep", false, "keep staged collection files")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not show a progress bar")

	return cmd
}

// newImporter builds an importer with the configured handlers. cleanup closes
// the database.
func newImporter(ctx context.Context, cfg *config.Config, n importer.Notifier) (importer.Importer, func(), error) {
	logger := newLogger(cfg.Log)

	dbOpts, closeDB, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		if err := closeDB(); err != nil {
			logger.Warn().Err(err).Msg("failed to close database")
		}
	}

	wopts := append([]dbcsv.Option{
		dbcsv.WithTmpDir(cfg.TmpDir),
		dbcsv.WithBufferSize(cfg.BufferSize),
	}, dbOpts...)

	imp, err := importer.New(
		importer.WithLogger(logger),
		importer.WithConcurrency(cfg.Concurrency),
		importer.WithWriterOptions(wopts...),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	hs, err := buildHandlers(cfg.Handlers, n)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	for _, h := range hs {
		if err := imp.AddHandler(ctx, h); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return imp, cleanup, nil
}

func newProgressBar(total int, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// withSlack adds a SlackNotifier after n when a channel is configured.
func withSlack(c config.SlackConfig, n importer.Notifier) (importer.Notifier, error) {
	if c.Channel == "" {
		return n, nil
	}

	token := c.Token
	if token == "" {
		token = os.Getenv("SLACK_TOKEN")
	}
	if token == "" {
		return nil, xerrors.New("slack.token or SLACK_TOKEN is required to notify slack")
	}

	return importer.Notifiers{n, &importer.SlackNotifier{
		Token:     token,
		Channel:   c.Channel,
		Username:  c.Username,
		IconEmoji: c.IconEmoji,
	}}, nil
}

// progressNotifier advances the progress bar once per imported file.
type progressNotifier struct {
	bar   *progressbar.ProgressBar
	rows  atomic.Int64
	files atomic.Int64
}

func (n *progressNotifier) Notify(ctx context.Context, r *importer.Result) error {
	if r.Error != nil {
		return nil
	}

	n.rows.Add(r.Rows)
	n.files.Add(1)

	return n.bar.Add(1)
}

// logNotifier logs results of files imported by watch.
type logNotifier struct {
	logger zerolog.Logger
}

func (n *logNotifier) Notify(ctx context.Context, r *importer.Result) error {
	if r.Error != nil {
		n.logger.Error().Err(r.Error).Str("file", r.Event.Name).Str("handler", r.Handler.Name).Msg("import failed")
		return nil
	}

	n.logger.Info().Str("file", r.Event.Name).Str("table", r.Handler.Table).Int64("rows", r.Rows).Msg("imported")

	return nil
}
