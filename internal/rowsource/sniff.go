// Package rowsource parses tabular inputs into raw rows for the
// detection core.
//
// Parsing is best-effort: misaligned or malformed records are
// skipped, never fatal, because the core must see whatever usable rows a
// messy export contains. No type coercion happens here; cells reach the
// row mapper exactly as parsed.
package rowsource

import (
	"bytes"
	"fmt"

	"callsift/pkg/records"
)

// Format identifies a detected input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSON
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Sniff infers the input format from leading bytes. Detection is
// heuristic and intentionally conservative: anything that is not clearly
// JSON or HTML is treated as CSV.
func Sniff(sample []byte) Format {
	trim := bytes.TrimSpace(sample)
	if len(trim) == 0 {
		return FormatUnknown
	}
	if trim[0] == '<' {
		return FormatHTML
	}
	if trim[0] == '{' || trim[0] == '[' {
		return FormatJSON
	}
	return FormatCSV
}

// ReadAuto sniffs data and dispatches to the matching reader.
func ReadAuto(data []byte) ([]*records.Row, error) {
	switch Sniff(data) {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data), ',')
	case FormatJSON:
		return ReadJSON(bytes.NewReader(data), 0)
	case FormatHTML:
		return ReadHTMLTable(bytes.NewReader(data), "table")
	default:
		return nil, fmt.Errorf("rowsource: cannot determine input format")
	}
}
