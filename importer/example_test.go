package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv"
	"go.nownabe.dev/dbcsv/importer"
	"go.nownabe.dev/dbcsv/mysql"
)

func Example() {
	ctx := context.Background()

	db, err := mysql.Open(os.Getenv("MYSQL_DSN"))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	imp, err := importer.New(
		importer.WithLogLevel("debug"),
		importer.WithWriterOptions(dbcsv.WithDB(db)),
	)
	if err != nil {
		panic(err)
	}

	projector := func(_ context.Context, r []string) ([]string, error) {
		t, err := time.Parse("2006/01/02", r[0])
		if err != nil {
			return nil, xerrors.Errorf("Column 0 cannot parse as a date: %w", err)
		}

		r[0] = t.Format("2006-01-02")
		r[1] = strings.ReplaceAll(r[1], ",", "")

		return r, nil
	}

	imp.MustAddHandler(ctx, &importer.Handler{
		Name:     "quickstart",
		Pattern:  regexp.MustCompile(`^example_bank/`),
		Encoding: japanese.ShiftJIS,
		Parser:   importer.CSVParser(),
		Notifier: &importer.SlackNotifier{
			Token:   os.Getenv("SLACK_TOKEN"),
			Channel: os.Getenv("SLACK_CHANNEL"),
		},
		Projector:       projector,
		SkipLeadingRows: 1,
		Fields:          []string{"date", "amount"},
		Table:           "statements",
	})

	if err := imp.Handle(ctx, importer.Event{Name: "example_bank/202101.csv"}); err != nil {
		panic(err)
	}
}

func ExampleHandler_preprocessor() {
	// Extract the payment month from the file name in the preprocessor.
	type contextKey string
	const monthKey contextKey = "month"

	re := regexp.MustCompile(`source_(\d+)\.csv`)
	preprocessor := func(ctx context.Context, e importer.Event) (context.Context, error) {
		match := re.FindStringSubmatch(filepath.Base(e.Name))
		if len(match) < 2 {
			return ctx, xerrors.Errorf("wrong file name: %s", e.Name)
		}

		month, err := time.Parse("200601", match[1])
		if err != nil {
			return ctx, xerrors.Errorf("failed to parse payment month from %s: %w", match[1], err)
		}

		return context.WithValue(ctx, monthKey, month.Format("2006-01-02")), nil
	}

	projector := func(ctx context.Context, r []string) ([]string, error) {
		// Skip noisy row.
		if r[0] == "" {
			return nil, nil
		}

		month, ok := ctx.Value(monthKey).(string)
		if !ok {
			return nil, xerrors.New("payment month is not in context")
		}

		return append(r, month), nil
	}

	_ = &importer.Handler{
		Name:            "preprocessor",
		Pattern:         regexp.MustCompile(`source_\d+\.csv$`),
		Parser:          importer.CSVParser(),
		Projector:       projector,
		Preprocessor:    preprocessor,
		SkipLeadingRows: 1,
		Fields:          []string{"paid_at", "amount", "payment_month"},
		Table:           "payments",
	}
}
