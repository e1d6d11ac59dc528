package dbcsv

import (
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Option configures Writer.
type Option interface {
	apply(*Writer) error
}

type optionFunc func(*Writer) error

func (f optionFunc) apply(w *Writer) error {
	return f(w)
}

// WithTmpDir stages collections in dir.
func WithTmpDir(dir string) Option {
	return optionFunc(func(w *Writer) error {
		return w.SetTmpDir(dir)
	})
}

// WithBufferSize buffers n bytes in memory before writing to the collection file.
func WithBufferSize(n int) Option {
	return optionFunc(func(w *Writer) error {
		return w.SetBufferSize(n)
	})
}

// WithDialect selects the bulk-load dialect. The default is MySQL.
func WithDialect(d Dialect) Option {
	return optionFunc(func(w *Writer) error {
		if d == nil {
			return xerrors.Errorf("dialect must not be nil: %w", ErrInvalidArgument)
		}
		w.dialect = d
		return nil
	})
}

// WithDB assigns a remote database, see Writer.SetDB.
func WithDB(db Executor) Option {
	return optionFunc(func(w *Writer) error {
		w.SetDB(db)
		return nil
	})
}

// WithLocalDB assigns a database running on this machine, see Writer.SetLocalDB.
func WithLocalDB(db Executor) Option {
	return optionFunc(func(w *Writer) error {
		w.SetLocalDB(db)
		return nil
	})
}

// WithLogger configures Writer to log through l.
func WithLogger(l zerolog.Logger) Option {
	return optionFunc(func(w *Writer) error {
		w.logger = l
		return nil
	})
}

// WithEOL sets the line terminator of collection files.
func WithEOL(eol string) Option {
	return optionFunc(func(w *Writer) error {
		if eol == "" {
			return xerrors.Errorf("line terminator must not be empty: %w", ErrInvalidArgument)
		}
		w.out.SetEOL(eol)
		return nil
	})
}

// WithQuoting sets when fields are enclosed in double quotes.
func WithQuoting(q Quoting) Option {
	return optionFunc(func(w *Writer) error {
		w.out.SetQuoting(q)
		return nil
	})
}
