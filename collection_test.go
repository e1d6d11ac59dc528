package dbcsv

import (
	"errors"
	"testing"
)

func TestParseCollectionRef(t *testing.T) {
	cases := []struct {
		in   string
		ref  CollectionRef
		fail bool
	}{
		{in: "aaa", ref: CollectionRef{Name: "aaa"}},
		{in: "a-b_C9", ref: CollectionRef{Name: "a-b_C9"}},
		{in: "/tmp/any name$.csv", ref: CollectionRef{Path: "/tmp/any name$.csv"}},
		{in: "relative/X.CSV", ref: CollectionRef{Path: "relative/X.CSV"}},
		{in: "", fail: true},
		{in: "$", fail: true},
		{in: "dir/aaa", fail: true},
	}

	for _, c := range cases {
		ref, err := ParseCollectionRef(c.in)
		if c.fail {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, but %v", c.in, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.in, err)
		}
		if ref != c.ref {
			t.Errorf("%q: ref should be %+v, but %+v", c.in, c.ref, ref)
		}
	}
}

func TestValidateFields(t *testing.T) {
	for _, fields := range [][]string{{"aa"}, {"a1", "b_", "CamelCase"}} {
		if err := ValidateFields(fields); err != nil {
			t.Errorf("%v should be valid: %v", fields, err)
		}
	}

	for _, fields := range [][]string{nil, {"a"}, {"_a"}, {"aa", "b-c"}, {"aa", ""}} {
		if err := ValidateFields(fields); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%v should be invalid, but %v", fields, err)
		}
	}
}
