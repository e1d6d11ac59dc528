package dbcsv

import (
	"fmt"
	"strings"
)

// Load describes one bulk load of a staged collection.
type Load struct {
	// Table is the destination table as given to StoreCollection.
	Table string

	// Path is the absolute path of the staged file.
	Path string

	// Fields are the column names read from the collection's header.
	Fields []string

	// Local is true when the client must send the file to the engine.
	Local bool

	// EOL is the line terminator the file was written with.
	EOL string

	// Statement is the text built by the Dialect.
	Statement string
}

// Dialect knows the bulk-load grammar of a database engine.
type Dialect interface {
	// Name identifies the dialect in logs.
	Name() string

	// Escape prepares a field value for the engine's file parser.
	Escape(string) string

	// LoadStatement builds the statement importing l.Path into l.Table.
	LoadStatement(l Load) string
}

var (
	// MySQL generates LOAD DATA [LOCAL] INFILE statements. It is the default dialect.
	MySQL Dialect = mysqlDialect{}

	// PostgreSQL generates COPY ... FROM statements in CSV format.
	PostgreSQL Dialect = postgresDialect{}

	// DuckDB generates INSERT ... SELECT FROM read_csv statements.
	DuckDB Dialect = duckdbDialect{}
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

// Escape doubles backslashes, which LOAD DATA treats as escape introducers.
func (mysqlDialect) Escape(s string) string {
	return strings.ReplaceAll(s, `\`, `\\`)
}

func (mysqlDialect) LoadStatement(l Load) string {
	position := " "
	if l.Local {
		position = " LOCAL "
	}

	fields := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		fields[i] = "`" + f + "`"
	}

	eol := l.EOL
	if eol == "" {
		eol = EOLLinux
	}
	eol = strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(eol)

	return fmt.Sprintf(`LOAD DATA LOW_PRIORITY%sINFILE "%s"
INTO TABLE %s
CHARACTER SET utf8
FIELDS TERMINATED BY ','
OPTIONALLY ENCLOSED BY '"'
LINES TERMINATED BY '%s'
IGNORE 1 LINES
(%s)`, position, l.Path, l.Table, eol, strings.Join(fields, ","))
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

// Escape returns s unchanged: CSV format COPY has no backslash escapes.
func (postgresDialect) Escape(s string) string { return s }

func (postgresDialect) LoadStatement(l Load) string {
	source := "STDIN"
	if !l.Local {
		source = quoteLiteral(l.Path)
	}

	return fmt.Sprintf(`COPY %s (%s) FROM %s WITH (FORMAT csv, HEADER true, DELIMITER ',', QUOTE '"')`,
		l.Table, quoteIdentifiers(l.Fields), source)
}

type duckdbDialect struct{}

func (duckdbDialect) Name() string { return "duckdb" }

func (duckdbDialect) Escape(s string) string { return s }

// LoadStatement ignores l.Local: DuckDB runs in-process and always reads the file itself.
// read_csv yields NULL for empty fields; collections carry no NULLs, so they load as ''.
func (duckdbDialect) LoadStatement(l Load) string {
	columns := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		columns[i] = `coalesce("` + f + `", '')`
	}

	return fmt.Sprintf(
		`INSERT INTO %s (%s) SELECT %s FROM read_csv(%s, auto_detect = true, header = true, delim = ',', quote = '"', escape = '"', all_varchar = true)`,
		l.Table, quoteIdentifiers(l.Fields), strings.Join(columns, ", "), quoteLiteral(l.Path))
}

func quoteIdentifiers(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, ",")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
