package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dbcsv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.True(t, cfg.Database.Remote)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
tmp_dir: /var/tmp
concurrency: 4
log:
  level: debug
  pretty: true
database:
  driver: duckdb
  dsn: /data/warehouse.duckdb
  remote: false
slack:
  channel: "#imports"
  icon_emoji: ":inbox_tray:"
handlers:
  - name: orders
    pattern: ^orders_.*\.csv$
    table: orders
    fields: [id, amount]
    encoding: shift_jis
    skip_leading_rows: 1
  - name: sheets
    pattern: \.xlsx$
    table: sheets
    format: xlsx
    sheet: Sheet1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/tmp", cfg.TmpDir)
	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, LogConfig{Level: "debug", Pretty: true}, cfg.Log)
	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.False(t, cfg.Database.Remote)
	assert.Equal(t, SlackConfig{Channel: "#imports", IconEmoji: ":inbox_tray:"}, cfg.Slack)

	require.Len(t, cfg.Handlers, 2)
	assert.Equal(t, HandlerConfig{
		Name:            "orders",
		Pattern:         `^orders_.*\.csv$`,
		Table:           "orders",
		Fields:          []string{"id", "amount"},
		Encoding:        "shift_jis",
		Format:          FormatCSV,
		SkipLeadingRows: 1,
	}, cfg.Handlers[0])
	assert.Equal(t, FormatXLSX, cfg.Handlers[1].Format)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"syntax":        "handlers: [",
		"driver":        "database: {driver: oracle}",
		"level":         "log: {level: loud}",
		"concurrency":   "concurrency: 0",
		"buffer size":   "buffer_size: -1",
		"bigquery":      "database: {driver: bigquery}",
		"handler name":  "handlers: [{table: t}]",
		"handler table": "handlers: [{name: h}]",
		"pattern":       "handlers: [{name: h, table: t, pattern: '('}]",
		"format":        "handlers: [{name: h, table: t, format: json}]",
		"skip":          "handlers: [{name: h, table: t, skip_leading_rows: -1}]",
		"slack channel": "slack: {token: xoxb}",
	}

	for name, content := range cases {
		content := content
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
