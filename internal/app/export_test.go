package app

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateLabel(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"Truist Financial", 18, "Truist Financial"},
		{"A Very Long Institution Name", 18, "A Very Long Insti…"},
		{"Banque Générale de Gestion", 18, "Banque Générale d…"},
		{"Société Générale Très Longue SA", 10, "Société G…"},
	}

	for _, tc := range cases {
		got := truncateLabel(tc.in, tc.max)
		if got != tc.want {
			t.Errorf("truncateLabel(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateLabel(%q, %d) produced invalid UTF-8: %q", tc.in, tc.max, got)
		}
		if utf8.RuneCountInString(got) > tc.max {
			t.Errorf("truncateLabel(%q, %d) is %d runes long", tc.in, tc.max, utf8.RuneCountInString(got))
		}
	}
}
