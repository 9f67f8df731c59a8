package schema

import (
	"strconv"
	"time"
)

// Kind tags a canonical metadata value. The analytics engine dispatches on
// this tag instead of re-inspecting raw cell contents.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Value is a tagged variant holding one canonical metadata cell.
//
// Exactly one of the payload fields is meaningful, selected by Kind.
// The zero Value is an empty text value.
type Value struct {
	Kind Kind

	text string
	num  float64
	t    time.Time
	b    bool
}

// Text wraps a string value.
func Text(s string) Value { return Value{Kind: KindText, text: s} }

// Number wraps a float value.
func Number(f float64) Value { return Value{Kind: KindNumber, num: f} }

// Date wraps a timestamp. Timestamps are normalized to UTC at construction
// so that every consumer sees one canonical representation.
func Date(t time.Time) Value { return Value{Kind: KindDate, t: t.UTC()} }

// Bool wraps a boolean value.
func Bool(v bool) Value { return Value{Kind: KindBool, b: v} }

// Float returns the numeric form of the value and whether one exists.
// Text values are not parsed here; coercion belongs to the row mapper.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Time returns the timestamp form and whether the value carries one.
func (v Value) Time() (time.Time, bool) {
	if v.Kind == KindDate {
		return v.t, true
	}
	return time.Time{}, false
}

// BoolVal returns the boolean form and whether the value carries one.
func (v Value) BoolVal() (bool, bool) {
	if v.Kind == KindBool {
		return v.b, true
	}
	return false, false
}

// String renders the value in its canonical string form. Dates use
// RFC 3339 in UTC; numbers use the shortest round-trip representation.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return v.text
	}
}
