package importer

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"
)

// Handler defines how to import files which match specified pattern.
type Handler struct {
	// Name is the handler's name used in logs and notifications.
	Name string

	Pattern         *regexp.Regexp
	Encoding        encoding.Encoding
	Parser          Parser
	Projector       Projector
	Preprocessor    Preprocessor
	SkipLeadingRows int
	Notifier        Notifier

	// Fields names the destination columns. When empty, the first record
	// after the skipped rows is taken as the header.
	Fields []string

	// Table is the destination table.
	Table string

	// KeepStaged keeps the staged collection file after the load.
	KeepStaged bool

	extractor extractor
	loader    loader
}

// Projector transforms source records into records for destination.
// Returning a nil record skips the row.
type Projector func(context.Context, []string) ([]string, error)

// Preprocessor runs before a file is parsed and may enrich the context passed
// to the Projector.
type Preprocessor func(context.Context, Event) (context.Context, error)

func (h *Handler) match(name string) bool {
	return h.Pattern != nil && h.Pattern.MatchString(name)
}

func (h *Handler) handle(ctx context.Context, e Event) (int64, error) {
	l := log.Ctx(ctx).With().Str("handler", h.Name).Logger()
	ctx = l.WithContext(ctx)

	if h.Preprocessor != nil {
		var err error
		ctx, err = h.Preprocessor(ctx, e)
		if err != nil {
			return 0, xerrors.Errorf("failed to preprocess: %w", err)
		}
	}

	r, closer, err := h.extractor.extract(ctx, e)
	if err != nil {
		return 0, xerrors.Errorf("failed to extract: %w", err)
	}
	defer closer()

	if h.Encoding != nil {
		r = transform.NewReader(r, h.Encoding.NewDecoder())
	}

	source, err := h.Parser(ctx, r)
	if err != nil {
		l.Error().Err(err).Msg("failed to parse file")
		return 0, xerrors.Errorf("failed to parse: %w", err)
	}

	if h.SkipLeadingRows > len(source) {
		return 0, xerrors.Errorf("cannot skip %d rows of %d", h.SkipLeadingRows, len(source))
	}
	source = source[h.SkipLeadingRows:]

	fields := h.Fields
	offset := h.SkipLeadingRows
	if len(fields) == 0 {
		if len(source) == 0 {
			return 0, xerrors.New("no header row found")
		}
		fields = source[0]
		source = source[1:]
		offset++
	}

	records := make([][]string, 0, len(source))

	for i, r := range source {
		if h.Projector != nil {
			r, err = h.Projector(ctx, r)
			if err != nil {
				l.Error().Err(err).Int("line", i+offset+1).Msg("failed to project row")
				return 0, xerrors.Errorf("failed to project row %d (line %d): %w", i, i+offset+1, err)
			}
			if r == nil {
				continue
			}
		}

		records = append(records, r)
	}

	l.Debug().Int("records", len(records)).Strs("fields", fields).Msg("records projected")

	n, err := h.loader.load(ctx, fields, records)
	if err != nil {
		return 0, xerrors.Errorf("failed to load: %w", err)
	}

	if started, ok := startedTimeFrom(ctx); ok {
		l.Info().Int64("rows", n).Dur("elapsed", time.Since(started)).Str("table", h.Table).Msg("file imported")
	}

	return n, nil
}

func (h *Handler) notify(ctx context.Context, r *Result) {
	if h.Notifier == nil {
		return
	}

	if err := h.Notifier.Notify(ctx, r); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("handler", h.Name).Msg("failed to notify")
	}
}
