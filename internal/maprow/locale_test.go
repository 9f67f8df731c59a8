package maprow

import (
	"testing"

	"golang.org/x/text/language"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name string
		in   string
		tag  language.Tag
		want float64
		ok   bool
	}{
		{"plain", "1234.56", language.Und, 1234.56, true},
		{"plain integer", "42", language.Und, 42, true},
		{"negative", "-17.5", language.Und, -17.5, true},

		{"german decimal comma", "1234,56", language.German, 1234.56, true},
		{"german grouping", "1.234,56", language.German, 1234.56, true},
		{"english grouping", "1,234.56", language.English, 1234.56, true},
		{"german whole thousands", "1.234", language.German, 1234, true},
		{"english whole thousands", "1,234", language.English, 1234, true},

		// Und auto-detection: both separators → rightmost is decimal.
		{"auto eu style", "1.234,56", language.Und, 1234.56, true},
		{"auto us style", "1,234.56", language.Und, 1234.56, true},
		// Single separator once → decimal; repeated → grouping.
		{"auto single comma", "12,5", language.Und, 12.5, true},
		{"auto repeated commas", "1,234,567", language.Und, 1234567, true},
		{"auto repeated dots", "1.234.567", language.Und, 1234567, true},

		{"space grouping", "1 234 567,89", language.French, 1234567.89, true},
		{"apostrophe grouping", "1'234.5", language.Und, 1234.5, true},

		{"empty", "", language.Und, 0, false},
		{"garbage", "n/a", language.Und, 0, false},
		{"units", "12s", language.Und, 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, tc.tag)
		if ok != tc.ok {
			t.Fatalf("%s: ParseNumber(%q) ok = %v, want %v", tc.name, tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("%s: ParseNumber(%q) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}
