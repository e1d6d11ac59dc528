package dbcsv

import "golang.org/x/xerrors"

var (
	// ErrInvalidArgument is returned when a name, field or setting is rejected.
	ErrInvalidArgument = xerrors.New("invalid argument")

	// ErrNoOpenCollection is returned when data is appended without an open collection.
	ErrNoOpenCollection = xerrors.New("no collection opened")

	// ErrNoCollection is returned when no collection is tracked at all.
	ErrNoCollection = xerrors.New("no collection")

	// ErrNoDB is returned by StoreCollection when no executor has been assigned.
	ErrNoDB = xerrors.New("missing db connection")

	// ErrNotFound is returned when an existing collection cannot be read.
	ErrNotFound = xerrors.New("collection not readable")

	// ErrWriterClosed is returned when writing to a closed RecordWriter.
	ErrWriterClosed = xerrors.New("writer is closed")
)

// ErrCollectionOpen is returned when a collection is started or opened while
// another one is still open. Close it first.
var ErrCollectionOpen = xerrors.New("a collection is already open")
