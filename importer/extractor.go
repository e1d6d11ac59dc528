package importer

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// extractor opens the source of an event.
type extractor interface {
	extract(context.Context, Event) (io.Reader, func(), error)
}

type defaultExtractor struct{}

func newDefaultExtractor() extractor {
	return &defaultExtractor{}
}

func (e *defaultExtractor) extract(ctx context.Context, ev Event) (io.Reader, func(), error) {
	l := log.Ctx(ctx)

	if ev.source != nil {
		return ev.source, func() {}, nil
	}

	f, err := os.Open(ev.FullPath())
	if err != nil {
		l.Error().Err(err).Msg("failed to open source file")
		return nil, nil, xerrors.Errorf("failed to open %s: %w", ev.FullPath(), err)
	}

	return f, func() { f.Close() }, nil
}
