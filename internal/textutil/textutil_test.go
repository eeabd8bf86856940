package textutil_test

import (
	"testing"

	"herald/internal/textutil"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a long description that overflows", 10, "a long ..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tc := range cases {
		if got := textutil.Truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"first\nsecond", "first second"},
		{"a\t\t b\n\nc", "a b c"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.CollapseSpace(tc.in); got != tc.want {
			t.Fatalf("CollapseSpace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
