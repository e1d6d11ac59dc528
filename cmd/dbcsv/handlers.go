package main

import (
	"regexp"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv/importer"
	"go.nownabe.dev/dbcsv/internal/config"
)

func buildHandlers(cs []config.HandlerConfig, n importer.Notifier) ([]*importer.Handler, error) {
	hs := make([]*importer.Handler, 0, len(cs))

	for _, c := range cs {
		h, err := buildHandler(c, n)
		if err != nil {
			return nil, xerrors.Errorf("handler %s: %w", c.Name, err)
		}
		hs = append(hs, h)
	}

	return hs, nil
}

func buildHandler(c config.HandlerConfig, n importer.Notifier) (*importer.Handler, error) {
	pattern, err := regexp.Compile(c.Pattern)
	if err != nil {
		return nil, xerrors.Errorf("invalid pattern: %w", err)
	}

	enc, err := lookupEncoding(c.Encoding)
	if err != nil {
		return nil, err
	}

	parser, err := buildParser(c.Format, c.Sheet)
	if err != nil {
		return nil, err
	}

	return &importer.Handler{
		Name:            c.Name,
		Pattern:         pattern,
		Encoding:        enc,
		Parser:          parser,
		SkipLeadingRows: c.SkipLeadingRows,
		Notifier:        n,
		Fields:          c.Fields,
		Table:           c.Table,
		KeepStaged:      c.KeepStaged,
	}, nil
}

// lookupEncoding resolves WHATWG encoding labels such as "shift_jis". UTF-8
// needs no decoding and yields nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, xerrors.Errorf("unknown encoding %q: %w", name, err)
	}

	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}

	return enc, nil
}

func buildParser(format, sheet string) (importer.Parser, error) {
	switch format {
	case "", config.FormatCSV:
		return importer.CSVParser(), nil
	case config.FormatXLS:
		index := 0
		if sheet != "" {
			i, err := strconv.Atoi(sheet)
			if err != nil {
				return nil, xerrors.Errorf("xls sheet must be an index: %w", err)
			}
			index = i
		}
		return importer.XLSParser(index), nil
	case config.FormatXLSX:
		return importer.XLSXParser(sheet), nil
	default:
		return nil, xerrors.Errorf("unknown format %q", format)
	}
}
