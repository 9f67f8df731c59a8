// Package maprow converts raw parsed rows into canonical metadata
// mappings using a detected schema and its column resolution.
//
// The mapper never re-derives which source column feeds a field: it takes
// the detector's resolution as input, so repeated calls on identical
// inputs always read the same columns (idempotence by construction).
//
// Coercion is deliberately lossy so a single bad cell never aborts a row:
//   - unparsable numbers become 0 (fail closed, documented behavior)
//   - unparsable dates/booleans are left unset
//   - required fields with no resolved column are reported, not fatal
package maprow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"callsift/internal/match"
	"callsift/internal/schema"
	"callsift/pkg/records"
)

// Mapping is the canonical result for one row.
type Mapping struct {
	Values *schema.Metadata

	// MissingRequired lists required field ids that had no resolved source
	// column. The caller reviews these; the row itself is still usable.
	MissingRequired []string
}

// Mapper performs type coercion for resolved columns.
//
// Locale selects the decimal convention for number parsing; the zero
// value (language.Und) auto-detects from each cell.
type Mapper struct {
	Locale language.Tag
}

// MapRow maps one raw row onto the schema's canonical fields using the
// detector's column resolution.
//
// Fields are visited in schema declaration order, which makes the
// resulting metadata ordering deterministic. Optional fields without a
// resolved column are simply omitted.
func (m Mapper) MapRow(row *records.Row, s *schema.SchemaDefinition, res match.Resolution) Mapping {
	out := Mapping{Values: schema.NewMetadata(len(s.Fields))}
	if row == nil {
		row = records.NewRow(0)
	}

	for _, f := range s.Fields {
		cm, ok := res[f.ID]
		if !ok {
			if f.Required {
				out.MissingRequired = append(out.MissingRequired, f.ID)
			}
			continue
		}

		raw, ok := row.Value(cm.Header)
		if !ok {
			if f.Required {
				out.MissingRequired = append(out.MissingRequired, f.ID)
			}
			continue
		}

		if v, ok := m.coerce(raw, f.DataType); ok {
			out.Values.Set(f.ID, v)
		}
	}
	return out
}

// coerce converts a raw cell to the field's declared type. The bool
// result is false only where "unset" is the documented safe default;
// numbers always coerce (0 on failure).
func (m Mapper) coerce(raw any, t schema.DataType) (schema.Value, bool) {
	switch t {
	case schema.TypeNumber:
		return schema.Number(m.coerceNumber(raw)), true

	case schema.TypeDate:
		if ts, ok := coerceTime(raw); ok {
			return schema.Date(ts), true
		}
		return schema.Value{}, false

	case schema.TypeBoolean:
		if b, ok := coerceBool(raw); ok {
			return schema.Bool(b), true
		}
		return schema.Value{}, false

	default:
		return schema.Text(strings.TrimSpace(cellString(raw))), true
	}
}

func (m Mapper) coerceNumber(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	}

	if f, ok := ParseNumber(cellString(raw), m.Locale); ok {
		return f
	}
	// Fail closed: unparsable numeric input maps to 0 rather than
	// aborting the row or guessing.
	return 0
}

// Date layouts tried in order; earlier layouts win ambiguous inputs
// (DMY preferred over MDY for numeric dates).
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var tsLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

func coerceTime(raw any) (time.Time, bool) {
	if t, ok := raw.(time.Time); ok {
		return t, true
	}

	s := strings.TrimSpace(cellString(raw))
	if s == "" {
		return time.Time{}, false
	}
	for _, lay := range tsLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceBool(raw any) (bool, bool) {
	if b, ok := raw.(bool); ok {
		return b, true
	}
	switch strings.ToLower(strings.TrimSpace(cellString(raw))) {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// cellString renders a raw cell as text without locale formatting.
func cellString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
