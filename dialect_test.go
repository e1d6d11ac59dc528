package dbcsv

import "testing"

func TestDialects(t *testing.T) {
	l := Load{
		Table:  "events",
		Path:   "/tmp/it's.csv",
		Fields: []string{"id", "name"},
	}

	cases := []struct {
		dialect  Dialect
		local    bool
		expected string
	}{
		{
			dialect:  PostgreSQL,
			expected: `COPY events ("id","name") FROM '/tmp/it''s.csv' WITH (FORMAT csv, HEADER true, DELIMITER ',', QUOTE '"')`,
		},
		{
			dialect:  PostgreSQL,
			local:    true,
			expected: `COPY events ("id","name") FROM STDIN WITH (FORMAT csv, HEADER true, DELIMITER ',', QUOTE '"')`,
		},
		{
			dialect:  DuckDB,
			local:    true,
			expected: `INSERT INTO events ("id","name") SELECT coalesce("id", ''), coalesce("name", '') FROM read_csv('/tmp/it''s.csv', auto_detect = true, header = true, delim = ',', quote = '"', escape = '"', all_varchar = true)`,
		},
	}

	for _, c := range cases {
		l.Local = c.local
		if actual := c.dialect.LoadStatement(l); actual != c.expected {
			t.Errorf("%s (local=%v) statement should be\n%s\nbut\n%s", c.dialect.Name(), c.local, c.expected, actual)
		}
	}
}

func TestMySQL_CRLF(t *testing.T) {
	l := Load{Table: "t", Path: "/x.csv", Fields: []string{"aa"}, EOL: EOLWindows}

	expected := `LOAD DATA LOW_PRIORITY INFILE "/x.csv"
INTO TABLE t
CHARACTER SET utf8
FIELDS TERMINATED BY ','
OPTIONALLY ENCLOSED BY '"'
LINES TERMINATED BY '\r\n'
IGNORE 1 LINES
(` + "`aa`" + `)`

	if actual := MySQL.LoadStatement(l); actual != expected {
		t.Errorf("statement should be\n%s\nbut\n%s", expected, actual)
	}
}

func TestEscape(t *testing.T) {
	if actual := MySQL.Escape(`a\b\\c`); actual != `a\\b\\\\c` {
		t.Errorf(`MySQL escape should double backslashes, but %s`, actual)
	}

	for _, d := range []Dialect{PostgreSQL, DuckDB} {
		if actual := d.Escape(`a\b`); actual != `a\b` {
			t.Errorf(`%s escape should keep backslashes, but %s`, d.Name(), actual)
		}
	}
}
