package importer

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// Importer imports files into database tables through staged collections.
type Importer interface {
	AddHandler(context.Context, *Handler) error
	Handle(context.Context, Event) error
	HandleAll(context.Context, []Event) error
	MustAddHandler(context.Context, *Handler)
}

// New builds a new Importer.
func New(opts ...Option) (Importer, error) {
	l := &importer{
		handlers:    []*Handler{},
		concurrency: 1,
		logLevel:    zerolog.InfoLevel,
	}

	for _, o := range opts {
		if err := o.apply(l); err != nil {
			return nil, xerrors.Errorf("failed to apply option: %w", err)
		}
	}

	if l.prettyLogging {
		l.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else if !l.hasLogger {
		l.logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	l.logger = l.logger.Level(l.logLevel)

	return l, nil
}

type importer struct {
	handlers []*Handler
	mu       sync.RWMutex

	concurrency   int
	writerOptions []dbcsv.Option

	logger        zerolog.Logger
	hasLogger     bool
	logLevel      zerolog.Level
	prettyLogging bool
}

func (l *importer) AddHandler(ctx context.Context, h *Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h.Parser == nil {
		return xerrors.Errorf("handler %s has no parser", h.Name)
	}

	if h.extractor == nil {
		h.extractor = newDefaultExtractor()
	}

	if h.loader == nil {
		opts := append([]dbcsv.Option{dbcsv.WithLogger(l.logger)}, l.writerOptions...)
		h.loader = newDefaultLoader(h.Table, h.KeepStaged, opts)
	}

	l.handlers = append(l.handlers, h)

	return nil
}

func (l *importer) MustAddHandler(ctx context.Context, h *Handler) {
	if err := l.AddHandler(ctx, h); err != nil {
		panic(err)
	}
}

func (l *importer) Handle(ctx context.Context, e Event) error {
	logger := l.logger.With().Str("file", e.Name).Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().Msg("importer started")
	defer logger.Debug().Msg("importer finished")

	l.mu.RLock()
	handlers := l.handlers
	l.mu.RUnlock()

	for _, h := range handlers {
		if !h.match(e.Name) {
			continue
		}

		hctx := withStartedTime(ctx)
		rows, err := h.handle(hctx, e)
		h.notify(hctx, &Result{Event: e, Handler: h, Rows: rows, Error: err})

		if err != nil {
			logger.Error().Err(err).Str("handler", h.Name).Msg("failed to import")
			return err
		}
	}

	return nil
}

// HandleAll handles events concurrently, at most the configured concurrency
// at a time. Every event gets its own staged collection.
func (l *importer) HandleAll(ctx context.Context, events []Event) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(l.concurrency)

	for _, e := range events {
		eg.Go(func() error {
			return l.Handle(ctx, e)
		})
	}

	return eg.Wait()
}
