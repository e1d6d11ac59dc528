package bigquery

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
)

func Test_splitTable(t *testing.T) {
	cases := map[string]struct {
		name    string
		project string
		dataset string
		table   string
	}{
		"table only":        {"orders", "p", "ds", "orders"},
		"dataset qualified": {"sales.orders", "p", "sales", "orders"},
		"fully qualified":   {"other.sales.orders", "other", "sales", "orders"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			p, d, tb, err := splitTable(c.name, "p", "ds")
			require.NoError(t, err)
			assert.Equal(t, c.project, p)
			assert.Equal(t, c.dataset, d)
			assert.Equal(t, c.table, tb)
		})
	}
}

func Test_splitTable_Invalid(t *testing.T) {
	_, _, _, err := splitTable("orders", "p", "")
	assert.True(t, xerrors.Is(err, dbcsv.ErrInvalidArgument))

	_, _, _, err = splitTable("a.b.c.d", "p", "ds")
	assert.True(t, xerrors.Is(err, dbcsv.ErrInvalidArgument))
}

func Test_objectName(t *testing.T) {
	name := objectName("staging/", "orders.csv")
	assert.True(t, strings.HasPrefix(name, "staging/"))
	assert.True(t, strings.HasSuffix(name, "-orders.csv"))
	assert.NotEqual(t, name, objectName("staging/", "orders.csv"))

	assert.False(t, strings.Contains(objectName("", "orders.csv"), "/"))
}

func Test_deleteLater(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	var called bool
	deleteLater(ctx, "gs://bucket/staging/orders.csv", func(context.Context) error {
		called = true
		return errors.New("permission denied")
	})()

	assert.True(t, called)
	assert.Contains(t, buf.String(), "failed to delete staged object")
	assert.Contains(t, buf.String(), "gs://bucket/staging/orders.csv")
	assert.Contains(t, buf.String(), "permission denied")
}

func TestDialect(t *testing.T) {
	assert.Equal(t, `a\b "c"`, Dialect.Escape(`a\b "c"`))

	stmt := Dialect.LoadStatement(dbcsv.Load{Table: "sales.orders", Path: "/tmp/orders.csv"})
	assert.Equal(t,
		"LOAD DATA INTO `sales.orders` FROM FILES (format = 'CSV', uris = ['/tmp/orders.csv'], skip_leading_rows = 1, allow_quoted_newlines = true)",
		stmt)
}

func TestDialect_WithWriter(t *testing.T) {
	w, err := dbcsv.New(dbcsv.WithTmpDir(t.TempDir()), dbcsv.WithDialect(Dialect))
	require.NoError(t, err)

	require.NoError(t, w.StartCollection("orders", []string{"id", "amount"}))
	require.NoError(t, w.AppendData([]string{"1", "100"}))

	stmt, err := w.Statement("sales.orders")
	require.NoError(t, err)
	assert.Contains(t, stmt, "uris = ['"+w.CollectionPath()+"']")
}
