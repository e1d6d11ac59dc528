package dbcsv

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// FileMode selects how RecordWriter.Open treats an existing file.
type FileMode int

const (
	// Truncate creates the file or empties an existing one.
	Truncate FileMode = iota
	// Append keeps existing content and writes after it.
	Append
)

// Quoting controls when RecordWriter encloses a field in double quotes.
type Quoting int

const (
	// QuoteMinimal quotes fields which contain a delimiter, a quote, a
	// backslash or whitespace. Empty fields and the word NULL are quoted too:
	// engines read them bare as SQL NULL, and a quoted field is always a string.
	QuoteMinimal Quoting = iota
	// QuoteAll quotes every field.
	QuoteAll
)

const (
	// EOLLinux is the default line terminator.
	EOLLinux = "\n"
	// EOLWindows terminates lines with CRLF.
	EOLWindows = "\r\n"

	delimiter = ','
	enclosure = '"'
)

// RecordWriter writes records as delimited lines into a file.
type RecordWriter struct {
	path       string
	file       *os.File
	buf        *bufio.Writer
	bufferSize int
	eol        string
	quoting    Quoting
}

// NewRecordWriter returns a closed RecordWriter with LF line endings and no buffering.
func NewRecordWriter() *RecordWriter {
	return &RecordWriter{eol: EOLLinux}
}

// Open opens path for writing and keeps the handle until Close.
func (w *RecordWriter) Open(path string, mode FileMode) error {
	if w.IsOpen() {
		if err := w.Close(); err != nil {
			return err
		}
	}

	flag := os.O_CREATE | os.O_WRONLY
	if mode == Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return xerrors.Errorf("failed to open %s: %w", path, err)
	}

	w.path = path
	w.file = f
	w.resetBuffer()

	return nil
}

// IsOpen reports whether a file handle is held.
func (w *RecordWriter) IsOpen() bool {
	return w.file != nil
}

// Path returns the path of the last opened file.
func (w *RecordWriter) Path() string {
	return w.path
}

// EOL returns the line terminator.
func (w *RecordWriter) EOL() string {
	return w.eol
}

// SetEOL sets the line terminator used by subsequent writes.
func (w *RecordWriter) SetEOL(eol string) {
	w.eol = eol
}

// Quoting returns the quoting policy.
func (w *RecordWriter) Quoting() Quoting {
	return w.quoting
}

// SetQuoting sets the quoting policy used by subsequent writes.
func (w *RecordWriter) SetQuoting(q Quoting) {
	w.quoting = q
}

// BufferSize returns the buffer size in bytes. Zero means unbuffered.
func (w *RecordWriter) BufferSize() int {
	return w.bufferSize
}

// SetBufferSize sets the number of bytes kept in memory before they are
// written to the file. On an open writer pending bytes are flushed first.
func (w *RecordWriter) SetBufferSize(n int) error {
	if n < 0 {
		return xerrors.Errorf("buffer size must not be negative, got %d: %w", n, ErrInvalidArgument)
	}

	if w.IsOpen() {
		if err := w.Flush(); err != nil {
			return err
		}
	}

	w.bufferSize = n
	if w.IsOpen() {
		w.resetBuffer()
	}

	return nil
}

func (w *RecordWriter) resetBuffer() {
	if w.bufferSize > 0 {
		w.buf = bufio.NewWriterSize(w.file, w.bufferSize)
	} else {
		w.buf = nil
	}
}

func (w *RecordWriter) out() io.Writer {
	if w.buf != nil {
		return w.buf
	}
	return w.file
}

// Write writes one record as a single line.
func (w *RecordWriter) Write(fields []string) error {
	if !w.IsOpen() {
		return ErrWriterClosed
	}

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(delimiter)
		}
		w.writeField(&b, f)
	}
	b.WriteString(w.eol)

	if _, err := io.WriteString(w.out(), b.String()); err != nil {
		return xerrors.Errorf("failed to write record to %s: %w", w.path, err)
	}

	return nil
}

func (w *RecordWriter) writeField(b *strings.Builder, f string) {
	if w.quoting != QuoteAll && !needsQuotes(f) {
		b.WriteString(f)
		return
	}

	b.WriteByte(enclosure)
	b.WriteString(strings.ReplaceAll(f, `"`, `""`))
	b.WriteByte(enclosure)
}

func needsQuotes(f string) bool {
	return f == "" || strings.EqualFold(f, "NULL") || strings.ContainsAny(f, ",\"\\ \t\r\n")
}

// Flush writes buffered bytes to the file.
func (w *RecordWriter) Flush() error {
	if w.buf == nil {
		return nil
	}

	if err := w.buf.Flush(); err != nil {
		return xerrors.Errorf("failed to flush %s: %w", w.path, err)
	}

	return nil
}

// Close flushes and releases the file. Closing a closed writer does nothing.
func (w *RecordWriter) Close() error {
	if !w.IsOpen() {
		return nil
	}

	ferr := w.Flush()
	cerr := w.file.Close()
	w.file = nil
	w.buf = nil

	if ferr != nil {
		return ferr
	}
	if cerr != nil {
		return xerrors.Errorf("failed to close %s: %w", w.path, cerr)
	}

	return nil
}
