package importer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func Test_Handler_WithSkipping(t *testing.T) {
	projector := func(_ context.Context, r []string) ([]string, error) {
		if r[0] == "" {
			return nil, nil
		}

		return r, nil
	}

	rawCSV := `aa,bb,cc
123,456,789
,foo bar,123
234,567,890`
	src := bytes.NewBufferString(rawCSV)

	tl := newTestLoader()

	handler := &Handler{
		Name:      "test-handler",
		Parser:    CSVParser(),
		Projector: projector,
		extractor: newTestExtractor(),
		loader:    tl,
	}

	e := Event{Name: "test/name", source: src}

	n, err := handler.handle(context.Background(), e)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if n != 2 {
		t.Errorf("loaded rows should be 2, but %d", n)
	}

	res := tl.(*testLoader)

	if strings.Join(res.fields, ",") != "aa,bb,cc" {
		t.Errorf(`fields should be taken from the header, but %v`, res.fields)
	}

	if len(res.result) != 2 {
		t.Fatalf("Size of result records should be 2, but %d", len(res.result))
	}

	if res.result[0][0] != "123" {
		t.Errorf(`results[0][0] should be "123", but "%s"`, res.result[0][0])
	}

	if res.result[1][2] != "890" {
		t.Errorf(`results[1][2] should be "890", but "%s"`, res.result[1][2])
	}
}

func Test_Handler_WithPreprocessor(t *testing.T) {
	type ctxKey string
	const prefixKey ctxKey = "prefix"

	projector := func(ctx context.Context, r []string) ([]string, error) {
		prefix, ok := ctx.Value(prefixKey).(string)
		if !ok {
			return nil, fmt.Errorf("prefix not found")
		}

		return append([]string{prefix}, r...), nil
	}

	preprocessor := func(ctx context.Context, e Event) (context.Context, error) {
		prefix := strings.Split(e.Name, "/")[0]
		return context.WithValue(ctx, prefixKey, prefix), nil
	}

	tl := newTestLoader()

	handler := &Handler{
		Name:         "test-handler",
		Parser:       CSVParser(),
		Projector:    projector,
		Preprocessor: preprocessor,
		Fields:       []string{"prefix", "aa", "bb", "cc"},
		extractor:    newTestExtractor(),
		loader:       tl,
	}

	e := Event{Name: "test/name", source: bytes.NewBufferString(`123,456,789`)}

	if _, err := handler.handle(context.Background(), e); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res := tl.(*testLoader)

	if len(res.result) != 1 {
		t.Fatalf("Size of result records should be 1, but %d", len(res.result))
	}

	expected := []string{"test", "123", "456", "789"}
	for i := range expected {
		if res.result[0][i] != expected[i] {
			t.Errorf(`results[0][%d] should be "%s", but "%s"`, i, expected[i], res.result[0][i])
		}
	}
}

func Test_Handler_SkipLeadingRowsAndEncoding(t *testing.T) {
	body, err := japanese.ShiftJIS.NewEncoder().String("明細書\n日付,金額\n2020/11/21,1000\n")
	if err != nil {
		t.Fatal(err)
	}

	tl := newTestLoader()

	handler := &Handler{
		Name:            "test-handler",
		Parser:          CSVParser(),
		Encoding:        japanese.ShiftJIS,
		SkipLeadingRows: 2,
		Fields:          []string{"date", "amount"},
		extractor:       newTestExtractor(),
		loader:          tl,
	}

	e := Event{Name: "test/name", source: bytes.NewBufferString(body)}

	if _, err := handler.handle(context.Background(), e); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	res := tl.(*testLoader)
	if len(res.result) != 1 || res.result[0][0] != "2020/11/21" || res.result[0][1] != "1000" {
		t.Errorf("unexpected records %v", res.result)
	}

	e = Event{Name: "test/name", source: bytes.NewBufferString("only,row\n")}
	handler.Encoding = nil
	handler.SkipLeadingRows = 3
	if _, err := handler.handle(context.Background(), e); err == nil {
		t.Error("expected error when skipping more rows than parsed")
	}
}

func Test_Handler_NoHeader(t *testing.T) {
	handler := &Handler{
		Name:      "test-handler",
		Parser:    CSVParser(),
		extractor: newTestExtractor(),
		loader:    newTestLoader(),
	}

	e := Event{Name: "test/name", source: bytes.NewBufferString("")}
	if _, err := handler.handle(context.Background(), e); err == nil {
		t.Error("expected error for a file without header")
	}
}
