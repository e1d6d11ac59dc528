package importer

import (
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// Option configures Importer.
type Option interface {
	apply(*importer) error
}

type optionFunc func(*importer) error

func (f optionFunc) apply(l *importer) error {
	return f(l)
}

// WithPrettyLogging configures Importer to print human friendly logs.
func WithPrettyLogging() Option {
	return optionFunc(func(l *importer) error {
		l.prettyLogging = true
		return nil
	})
}

// WithLogLevel sets the minimum level of logs, e.g. "debug".
func WithLogLevel(level string) Option {
	return optionFunc(func(l *importer) error {
		lv, err := zerolog.ParseLevel(level)
		if err != nil {
			return xerrors.Errorf("invalid log level %q: %w", level, err)
		}
		l.logLevel = lv
		return nil
	})
}

// WithLogger logs through logger instead of a JSON logger on stderr.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(l *importer) error {
		l.logger = logger
		l.hasLogger = true
		l.logLevel = logger.GetLevel()
		return nil
	})
}

// WithConcurrency sets how many files HandleAll imports at once.
func WithConcurrency(n int) Option {
	return optionFunc(func(l *importer) error {
		if n < 1 {
			return xerrors.Errorf("concurrency must be positive, got %d", n)
		}
		l.concurrency = n
		return nil
	})
}

// WithWriterOptions configures the dbcsv.Writer staging each file, e.g. its
// temporary directory, buffer size, dialect and database.
func WithWriterOptions(opts ...dbcsv.Option) Option {
	return optionFunc(func(l *importer) error {
		l.writerOptions = append(l.writerOptions, opts...)
		return nil
	})
}
