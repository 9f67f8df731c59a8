package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes accented characters and removes the combining
// marks, so "Durée" and "Duree" normalize to the same form.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize converts a header or field name into its canonical comparison
// form: diacritics folded, lowercased, everything but letters and digits
// dropped. "Agent Name", "agent_name", and "AgentName" all normalize to
// "agentname".
func Normalize(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		// Fold failure leaves the input usable as-is; comparison still works.
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokens splits a header or field name into normalized word tokens. Word
// boundaries are non-alphanumeric runs and lower→upper camelCase
// transitions, so "AgentName" and "agent name" both yield [agent name].
func Tokens(s string) []string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}

	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	prevLower := false
	for _, r := range folded {
		switch {
		case unicode.IsUpper(r):
			if prevLower {
				flush()
			}
			cur.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(unicode.ToLower(r))
			prevLower = unicode.IsLower(r)
		default:
			flush()
			prevLower = false
		}
	}
	flush()
	return out
}
