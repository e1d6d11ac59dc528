package importer

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// loader loads projected records into a destination table.
type loader interface {
	load(ctx context.Context, fields []string, records [][]string) (int64, error)
}

// defaultLoader stages records in a fresh collection and stores it.
type defaultLoader struct {
	table      string
	keepStaged bool
	opts       []dbcsv.Option
}

func newDefaultLoader(table string, keepStaged bool, opts []dbcsv.Option) loader {
	return &defaultLoader{table: table, keepStaged: keepStaged, opts: opts}
}

func (l *defaultLoader) load(ctx context.Context, fields []string, records [][]string) (int64, error) {
	logger := log.Ctx(ctx)

	w, err := dbcsv.New(l.opts...)
	if err != nil {
		return 0, xerrors.Errorf("failed to build writer: %w", err)
	}

	name := "import-" + uuid.NewString()
	if err := w.StartCollection(name, fields); err != nil {
		return 0, xerrors.Errorf("failed to start collection: %w", err)
	}

	if !l.keepStaged {
		defer func() {
			if err := w.RemoveCollection(); err != nil {
				logger.Warn().Err(err).Str("path", w.CollectionPath()).Msg("failed to remove staged file")
			}
		}()
	}

	for i, r := range records {
		if err := w.AppendData(r); err != nil {
			return 0, xerrors.Errorf("failed to stage record %d: %w", i, err)
		}
	}

	if err := w.StoreCollection(ctx, l.table); err != nil {
		return 0, xerrors.Errorf("failed to store %s into %s: %w", w.CollectionPath(), l.table, err)
	}

	n, _ := w.LastResultCount()
	logger.Debug().Str("path", w.CollectionPath()).Int64("rows", n).Msg("staged file stored")

	return n, nil
}
