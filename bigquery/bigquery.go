// Package bigquery loads dbcsv collections into BigQuery tables with load jobs.
//
// Loader implements dbcsv.Executor and dbcsv.FileLoader. Use it with the
// Dialect of this package:
//
//	l, err := bigquery.NewLoader(ctx, "my-project", "my_dataset")
//	w, err := dbcsv.New(dbcsv.WithDialect(bigquery.Dialect), dbcsv.WithDB(l))
package bigquery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

// Dialect describes loads as BigQuery LOAD DATA statements. Loader runs load
// jobs instead of the statement text, which is kept for logs and Statement.
var Dialect dbcsv.Dialect = dialect{}

type dialect struct{}

func (dialect) Name() string { return "bigquery" }

// Escape returns s unchanged: BigQuery CSV only recognizes doubled quotes.
func (dialect) Escape(s string) string { return s }

func (dialect) LoadStatement(l dbcsv.Load) string {
	return fmt.Sprintf("LOAD DATA INTO `%s` FROM FILES (format = 'CSV', uris = ['%s'], skip_leading_rows = 1, allow_quoted_newlines = true)",
		l.Table, l.Path)
}

// Loader runs BigQuery load jobs for staged collections.
type Loader struct {
	client  *bigquery.Client
	project string
	dataset string

	gcs    *storage.Client
	bucket string
	prefix string
}

// Option configures Loader.
type Option interface {
	apply(*Loader)
}

type optionFunc func(*Loader)

func (f optionFunc) apply(l *Loader) { f(l) }

// WithBucket uploads staged files to bucket and loads them from Cloud
// Storage instead of streaming them in the load request. Uploaded objects
// are deleted after the job finishes.
func WithBucket(bucket, prefix string) Option {
	return optionFunc(func(l *Loader) {
		l.bucket = bucket
		l.prefix = prefix
	})
}

// NewLoader creates a Loader. Unqualified table names are resolved in dataset.
func NewLoader(ctx context.Context, project, dataset string, opts ...Option) (*Loader, error) {
	l := &Loader{project: project, dataset: dataset}
	for _, o := range opts {
		o.apply(l)
	}

	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, xerrors.Errorf("failed to create bigquery client: %w", err)
	}
	l.client = bq

	if l.bucket != "" {
		gcs, err := storage.NewClient(ctx)
		if err != nil {
			bq.Close()
			return nil, xerrors.Errorf("failed to create storage client: %w", err)
		}
		l.gcs = gcs
	}

	return l, nil
}

// Exec runs query as a query job and returns the number of rows modified by DML.
func (l *Loader) Exec(ctx context.Context, query string) (int64, error) {
	job, err := l.client.Query(query).Run(ctx)
	if err != nil {
		return 0, xerrors.Errorf("failed to run bigquery query job: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, xerrors.Errorf("failed to wait job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, err
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}

	return 0, nil
}

// LoadFile loads the staged file at ld.Path into ld.Table.
func (l *Loader) LoadFile(ctx context.Context, ld dbcsv.Load) (int64, error) {
	project, dataset, table, err := splitTable(ld.Table, l.project, l.dataset)
	if err != nil {
		return 0, err
	}

	var src bigquery.LoadSource
	if l.gcs != nil {
		ref, cleanup, err := l.upload(ctx, ld.Path)
		if err != nil {
			return 0, err
		}
		defer cleanup()
		src = ref
	} else {
		f, err := os.Open(ld.Path)
		if err != nil {
			return 0, xerrors.Errorf("failed to open %s: %w", ld.Path, err)
		}
		defer f.Close()

		rs := bigquery.NewReaderSource(f)
		configureCSV(&rs.FileConfig)
		src = rs
	}

	loader := l.client.DatasetInProject(project, dataset).Table(table).LoaderFrom(src)

	job, err := loader.Run(ctx)
	if err != nil {
		return 0, xerrors.Errorf("failed to run bigquery load job: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, xerrors.Errorf("failed to wait job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, err
	}

	if stats, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
		return stats.OutputRows, nil
	}

	return 0, nil
}

func (l *Loader) upload(ctx context.Context, path string) (*bigquery.GCSReference, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := objectName(l.prefix, filepath.Base(path))
	obj := l.gcs.Bucket(l.bucket).Object(name)

	w := obj.NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return nil, nil, xerrors.Errorf("failed to upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, nil, xerrors.Errorf("failed to upload %s: %w", path, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", l.bucket, name)
	ref := bigquery.NewGCSReference(uri)
	configureCSV(&ref.FileConfig)

	return ref, deleteLater(ctx, uri, obj.Delete), nil
}

// deleteLater returns a cleanup which deletes an uploaded object, also when
// ctx has been canceled, and logs failures through the logger in ctx.
func deleteLater(ctx context.Context, uri string, del func(context.Context) error) func() {
	return func() {
		if err := del(context.Background()); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("uri", uri).Msg("failed to delete staged object")
		}
	}
}

// Close closes the clients.
func (l *Loader) Close() error {
	if l.gcs != nil {
		if err := l.gcs.Close(); err != nil {
			return err
		}
	}
	return l.client.Close()
}

func configureCSV(c *bigquery.FileConfig) {
	c.SourceFormat = bigquery.CSV
	c.SkipLeadingRows = 1
	c.AllowQuotedNewlines = true
}

// objectName returns a unique object name so concurrent loads of equally
// named collections do not overwrite each other.
func objectName(prefix, base string) string {
	name := uuid.NewString() + "-" + base
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// splitTable resolves "table", "dataset.table" and "project.dataset.table".
func splitTable(name, project, dataset string) (string, string, string, error) {
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		if dataset == "" {
			return "", "", "", xerrors.Errorf("table %q has no dataset: %w", name, dbcsv.ErrInvalidArgument)
		}
		return project, dataset, parts[0], nil
	case 2:
		return project, parts[0], parts[1], nil
	case 3:
		return parts[0], parts[1], parts[2], nil
	default:
		return "", "", "", xerrors.Errorf("invalid table name %q: %w", name, dbcsv.ErrInvalidArgument)
	}
}
