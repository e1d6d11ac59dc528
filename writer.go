package dbcsv

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Writer stages records in a collection file and loads that file into a
// database table with a single bulk-load statement.
//
// A Writer tracks at most one collection. It is not safe for concurrent use;
// concurrent producers should use one Writer and one collection each.
type Writer struct {
	tmpDir  string
	dialect Dialect
	logger  zerolog.Logger

	db     Executor
	remote *bool

	out     *RecordWriter
	current *collection

	lastResultsCount *int64
}

// New builds a Writer. Without options it stages into os.TempDir() and
// speaks the MySQL dialect.
func New(opts ...Option) (*Writer, error) {
	w := &Writer{
		dialect: MySQL,
		logger:  zerolog.Nop(),
		out:     NewRecordWriter(),
	}

	for _, o := range opts {
		if err := o.apply(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// SetDB assigns the executor used by StoreCollection. The database is assumed
// to run on another machine, so the staged file is loaded as a local file of
// the client (LOAD DATA LOCAL for MySQL).
func (w *Writer) SetDB(db Executor) {
	w.setDB(db, true)
}

// SetLocalDB assigns an executor whose engine runs on this machine and reads
// the staged file from disk itself.
func (w *Writer) SetLocalDB(db Executor) {
	w.setDB(db, false)
}

func (w *Writer) setDB(db Executor, remote bool) {
	w.db = db
	w.remote = &remote
}

// DB returns the assigned executor or nil.
func (w *Writer) DB() Executor {
	return w.db
}

// IsDBRemote reports whether the assigned database is remote. It is nil until
// a database is assigned.
func (w *Writer) IsDBRemote() *bool {
	return w.remote
}

// Dialect returns the bulk-load dialect.
func (w *Writer) Dialect() Dialect {
	return w.dialect
}

// BufferSize returns the write buffer size in bytes.
func (w *Writer) BufferSize() int {
	return w.out.BufferSize()
}

// SetBufferSize sets the write buffer size in bytes, also for an open collection.
func (w *Writer) SetBufferSize(n int) error {
	return w.out.SetBufferSize(n)
}

// SetTmpDir sets the directory collections are staged in. It must be an
// existing writable directory. Relative paths are made absolute.
func (w *Writer) SetTmpDir(path string) error {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return xerrors.Errorf("temporary folder must be a writable directory: %s: %w", path, ErrInvalidArgument)
	}

	probe, err := os.CreateTemp(path, ".dbcsv-*")
	if err != nil {
		return xerrors.Errorf("temporary folder must be a writable directory: %s: %w", path, ErrInvalidArgument)
	}
	probe.Close()
	os.Remove(probe.Name())

	abs, err := filepath.Abs(path)
	if err != nil {
		return xerrors.Errorf("failed to resolve %s: %w", path, err)
	}
	w.tmpDir = withTrailingSeparator(abs)

	return nil
}

// TmpDir returns the staging directory with a trailing separator.
func (w *Writer) TmpDir() string {
	if w.tmpDir == "" {
		return withTrailingSeparator(os.TempDir())
	}
	return w.tmpDir
}

func withTrailingSeparator(path string) string {
	if len(path) > 0 && path[len(path)-1] == filepath.Separator {
		return path
	}
	return path + string(filepath.Separator)
}

// HasOpenCollection reports whether a collection is open for appending.
func (w *Writer) HasOpenCollection() bool {
	return w.current != nil && w.current.open
}

// CollectionPath returns the path of the tracked collection or "".
func (w *Writer) CollectionPath() string {
	if w.current == nil {
		return ""
	}
	return w.current.path
}

// LastResultCount returns the row count reported by the last successful
// StoreCollection. ok is false until a store succeeds.
func (w *Writer) LastResultCount() (n int64, ok bool) {
	if w.lastResultsCount == nil {
		return 0, false
	}
	return *w.lastResultsCount, true
}

// StartCollection creates a new collection file in the temporary directory
// and writes fields as its header. The file stays open for AppendData.
func (w *Writer) StartCollection(name string, fields []string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if err := ValidateFields(fields); err != nil {
		return err
	}
	if w.HasOpenCollection() {
		return xerrors.Errorf("cannot start %s: %w", name, ErrCollectionOpen)
	}

	path := w.TmpDir() + name + Extension
	if err := w.out.Open(path, Truncate); err != nil {
		return err
	}

	if err := w.out.Write(fields); err != nil {
		w.out.Close()
		return err
	}

	w.current = &collection{
		path:   path,
		fields: append([]string(nil), fields...),
		open:   true,
	}
	w.logger.Debug().Str("path", path).Strs("fields", fields).Msg("collection started")

	return nil
}

// OpenCollection reopens an existing collection for appending. name is either
// a collection name in the temporary directory or, when it ends with
// Extension, the path of the collection file.
func (w *Writer) OpenCollection(name string) error {
	ref, err := ParseCollectionRef(name)
	if err != nil {
		return err
	}

	if ref.Path != "" {
		return w.OpenCollectionFile(ref.Path)
	}

	return w.OpenCollectionName(ref.Name)
}

// OpenCollectionName reopens the collection called name in the temporary directory.
func (w *Writer) OpenCollectionName(name string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}

	return w.OpenCollectionFile(w.TmpDir() + name + Extension)
}

// OpenCollectionFile reopens the collection stored at path. The header is
// neither rewritten nor checked.
func (w *Writer) OpenCollectionFile(path string) error {
	if path == "" {
		return xerrors.Errorf("collection path cannot be empty: %w", ErrInvalidArgument)
	}
	if w.HasOpenCollection() {
		return xerrors.Errorf("cannot open %s: %w", path, ErrCollectionOpen)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return xerrors.Errorf("failed to resolve %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return xerrors.Errorf("collection %s not readable (%v): %w", abs, err, ErrNotFound)
	}
	f.Close()

	if err := w.out.Open(abs, Append); err != nil {
		return err
	}

	w.current = &collection{path: abs, open: true}
	w.logger.Debug().Str("path", abs).Msg("collection opened")

	return nil
}

func (w *Writer) trackedCollection() (*collection, error) {
	if w.current == nil {
		return nil, ErrNoCollection
	}
	return w.current, nil
}

// AppendData escapes every field and writes them as one record.
func (w *Writer) AppendData(fields []string) error {
	if !w.HasOpenCollection() {
		return ErrNoOpenCollection
	}

	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = w.Escape(f)
	}

	return w.out.Write(escaped)
}

// Escape prepares value for the dialect's file parser.
func (w *Writer) Escape(value string) string {
	return w.dialect.Escape(value)
}

// CloseCollection flushes and closes the open collection. The collection stays
// attached for StoreCollection and RemoveCollection unless detach is true.
// Without an open collection it does nothing.
func (w *Writer) CloseCollection(detach bool) error {
	if !w.HasOpenCollection() {
		return nil
	}

	c := w.current
	err := w.out.Close()
	c.open = false
	if detach {
		w.current = nil
	}
	w.logger.Debug().Str("path", c.path).Bool("detach", detach).Msg("collection closed")

	return err
}

// Detach closes the tracked collection, if open, and forgets it. The file is kept.
func (w *Writer) Detach() error {
	if w.current == nil {
		return nil
	}

	err := w.CloseCollection(true)
	w.current = nil

	return err
}

// RemoveCollection closes the tracked collection and deletes its file.
func (w *Writer) RemoveCollection() error {
	c, err := w.trackedCollection()
	if err != nil {
		return err
	}

	if err := w.CloseCollection(false); err != nil {
		return err
	}

	if err := os.Remove(c.path); err != nil {
		return xerrors.Errorf("failed to remove collection %s: %w", c.path, err)
	}

	w.current = nil
	w.logger.Debug().Str("path", c.path).Msg("collection removed")

	return nil
}

// Statement returns the bulk-load statement StoreCollection would execute for
// the tracked collection.
func (w *Writer) Statement(tableName string) (string, error) {
	c, err := w.trackedCollection()
	if err != nil {
		return "", err
	}

	if err := validateTableName(tableName); err != nil {
		return "", err
	}

	l, err := w.buildLoad(c, tableName)
	if err != nil {
		return "", err
	}

	return l.Statement, nil
}

// StoreCollection closes the tracked collection and bulk loads it into
// tableName. On success the engine's row count is kept as LastResultCount.
// Errors from the executor are returned as they are.
func (w *Writer) StoreCollection(ctx context.Context, tableName string) error {
	c, err := w.trackedCollection()
	if err != nil {
		return err
	}

	if w.db == nil {
		return xerrors.Errorf("assign an executor with SetDB: %w", ErrNoDB)
	}

	if err := validateTableName(tableName); err != nil {
		return err
	}

	if err := w.CloseCollection(false); err != nil {
		return err
	}

	l, err := w.buildLoad(c, tableName)
	if err != nil {
		return err
	}

	started := time.Now()
	logger := w.logger.With().
		Str("dialect", w.dialect.Name()).
		Str("table", tableName).
		Str("path", c.path).
		Bool("local", l.Local).
		Logger()
	logger.Debug().Str("statement", l.Statement).Msg("loading collection")

	var n int64
	if fl, ok := w.db.(FileLoader); ok {
		n, err = fl.LoadFile(ctx, l)
	} else {
		n, err = w.db.Exec(ctx, l.Statement)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to load collection")
		return err
	}

	w.lastResultsCount = &n
	logger.Info().Int64("rows", n).Dur("elapsed", time.Since(started)).Msg("collection stored")

	return nil
}

func (w *Writer) buildLoad(c *collection, tableName string) (Load, error) {
	fields := c.fields
	if fields == nil {
		var err error
		fields, err = readHeader(c.path)
		if err != nil {
			return Load{}, err
		}
	}

	l := Load{
		Table:  tableName,
		Path:   c.path,
		Fields: fields,
		Local:  w.remote != nil && *w.remote,
		EOL:    w.out.EOL(),
	}
	l.Statement = w.dialect.LoadStatement(l)

	return l, nil
}

// readHeader parses the first line of the file at path as a CSV record.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open collection %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	fields, err := r.Read()
	if err != nil {
		return nil, xerrors.Errorf("failed to read header of %s: %w", path, err)
	}

	return fields, nil
}
