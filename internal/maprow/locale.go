package maprow

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// decimalCommaBases are base languages whose conventional number format
// uses a decimal comma (and typically '.' or space for grouping).
var decimalCommaBases = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "pt": true,
	"nl": true, "pl": true, "cs": true, "sk": true, "hu": true,
	"tr": true, "ru": true, "uk": true, "sv": true, "da": true,
	"fi": true, "nb": true, "nn": true, "el": true, "ro": true,
}

// ParseNumber parses a raw cell into a float64 honoring the locale's
// decimal convention. The zero tag (language.Und) enables best-effort
// detection from the separators present in the value itself.
//
// Behavior:
//   - Grouping separators (space, NBSP, apostrophe, and the non-decimal
//     one of ',' / '.') are stripped before parsing.
//   - With language.Und and both separators present, the rightmost one is
//     taken as the decimal mark.
//   - A lone separator repeated more than once is grouping, not decimal.
//
// The bool result is false when no numeric interpretation exists; the
// caller decides the fail-closed substitute.
func ParseNumber(s string, tag language.Tag) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Strip unambiguous grouping characters up front.
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '\'':
			return -1
		}
		return r
	}, s)

	dec := decimalMark(s, tag)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ',', '.':
			if r == dec {
				b.WriteByte('.')
			}
			// The other separator is grouping; drop it.
		default:
			b.WriteRune(r)
		}
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// decimalMark picks which of ',' and '.' acts as the decimal separator
// for the given value under the given locale.
func decimalMark(s string, tag language.Tag) rune {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	// Both present: position decides regardless of locale ("1.234,56" vs
	// "1,234.56").
	if lastComma >= 0 && lastDot >= 0 {
		if lastComma > lastDot {
			return ','
		}
		return '.'
	}

	if tag != language.Und {
		base, _ := tag.Base()
		if decimalCommaBases[base.String()] {
			return ','
		}
		return '.'
	}

	// Single separator under auto-detection: repeated occurrences mean
	// grouping ("1,234,567"); a single occurrence is a decimal mark.
	if lastComma >= 0 {
		if strings.Count(s, ",") > 1 {
			return 0
		}
		return ','
	}
	if lastDot >= 0 {
		if strings.Count(s, ".") > 1 {
			return 0
		}
		return '.'
	}
	return '.'
}
