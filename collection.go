package dbcsv

import (
	"regexp"
	"strings"

	"golang.org/x/xerrors"
)

// Extension is the file extension of staged collections.
const Extension = ".csv"

var (
	collectionNameRE = regexp.MustCompile(`^[0-9a-zA-Z\-_]+$`)

	// A field name is a letter followed by at least one more character.
	fieldNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]+$`)

	tableNameRE = regexp.MustCompile(`^[A-Za-z0-9_$\-]+(\.[A-Za-z0-9_$\-]+){0,2}$`)
)

// CollectionRef identifies an existing collection either by name (resolved in
// the temporary directory) or by the path of its file. Exactly one of Name and
// Path is set.
type CollectionRef struct {
	Name string
	Path string
}

// ParseCollectionRef interprets s as a file path when it ends with Extension
// (in any case) and as a collection name otherwise. Paths are not checked
// against the name rules.
func ParseCollectionRef(s string) (CollectionRef, error) {
	if s == "" {
		return CollectionRef{}, xerrors.Errorf("collection name cannot be empty: %w", ErrInvalidArgument)
	}

	if strings.HasSuffix(strings.ToLower(s), Extension) {
		return CollectionRef{Path: s}, nil
	}

	if err := ValidateCollectionName(s); err != nil {
		return CollectionRef{}, err
	}

	return CollectionRef{Name: s}, nil
}

// ValidateCollectionName checks that name consists only of letters, digits, '-' and '_'.
func ValidateCollectionName(name string) error {
	if !collectionNameRE.MatchString(name) {
		return xerrors.Errorf(
			"collection name must be a non-empty string of letters, numbers and - _ symbols, got %q: %w",
			name, ErrInvalidArgument)
	}
	return nil
}

// ValidateFields checks that fields is non-empty and that every entry is a
// letter followed by at least one letter, digit or underscore.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return xerrors.Errorf("field names must be a non-empty list: %w", ErrInvalidArgument)
	}

	for _, f := range fields {
		if !fieldNameRE.MatchString(f) {
			return xerrors.Errorf("invalid field name: `%s`: %w", f, ErrInvalidArgument)
		}
	}

	return nil
}

func validateTableName(table string) error {
	if !tableNameRE.MatchString(table) {
		return xerrors.Errorf("invalid table name: %q: %w", table, ErrInvalidArgument)
	}
	return nil
}

// collection is the staging file tracked by a Writer. A tracked collection is
// either open (writable) or attached: closed, but still known for
// StoreCollection and RemoveCollection.
type collection struct {
	path string

	// fields is nil for collections attached with OpenCollection; their
	// field list is read back from the header line.
	fields []string

	open bool
}
