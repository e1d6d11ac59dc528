package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"gitlab.com/osaki-lab/iowrapper"
	"golang.org/x/xerrors"
)

var errNoSheet = errors.New("no sheet found")

// Parser parses a source file into records.
type Parser func(context.Context, io.Reader) ([][]string, error)

// CSVParser provides a parser to parse CSV files.
func CSVParser() Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		return cr.ReadAll()
	}
}

// PartialCSVParser parses CSV files which carry free text around the records:
// it drops skipHeadRows lines from the top and skipTailRows lines from the
// bottom, splitting lines by sep.
func PartialCSVParser(skipHeadRows, skipTailRows uint, sep string) Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, xerrors.Errorf("failed to read: %w", err)
		}

		lines := strings.Split(string(b), sep)
		if uint(len(lines)) <= skipHeadRows+skipTailRows {
			return [][]string{}, nil
		}
		lines = lines[skipHeadRows : uint(len(lines))-skipTailRows]

		cr := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
		cr.FieldsPerRecord = -1

		return cr.ReadAll()
	}
}

// XLSParser parses a sheet of legacy Excel (.xls) workbooks.
func XLSParser(sheet int) Parser {
	getRow := func(s *xls.WorkSheet, row int) (r *xls.Row, ok bool) {
		defer func() {
			if recover() != nil {
				r, ok = nil, false
			}
		}()

		r = s.Row(row)
		return r, r != nil
	}

	return func(_ context.Context, r io.Reader) ([][]string, error) {
		wb, err := xls.OpenReader(iowrapper.NewSeeker(r), "utf-8")
		if err != nil {
			return nil, xerrors.Errorf("failed to open xls file: %w", err)
		}

		s := wb.GetSheet(sheet)
		if s == nil {
			return nil, errNoSheet
		}

		records := [][]string{}

		for i := 0; i <= int(s.MaxRow); i++ {
			row, ok := getRow(s, i)
			if !ok {
				continue
			}

			record := []string{}
			for col := row.FirstCol(); col < row.LastCol(); col++ {
				record = append(record, row.Col(col))
			}

			records = append(records, record)
		}

		return records, nil
	}
}

// XLSXParser parses a sheet of Excel workbooks. An empty sheet name selects
// the first sheet.
func XLSXParser(sheet string) Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, xerrors.Errorf("failed to open xlsx file: %w", err)
		}
		defer f.Close()

		name := sheet
		if name == "" {
			sheets := f.GetSheetList()
			if len(sheets) == 0 {
				return nil, errNoSheet
			}
			name = sheets[0]
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, xerrors.Errorf("failed to read sheet %s: %w", name, err)
		}

		return rows, nil
	}
}
