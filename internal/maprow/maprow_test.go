package maprow

import (
	"testing"
	"time"

	"golang.org/x/text/language"

	"callsift/internal/match"
	"callsift/internal/schema"
	"callsift/pkg/records"
)

func callSchema() *schema.SchemaDefinition {
	return &schema.SchemaDefinition{
		ID: "calls",
		Fields: []schema.FieldDefinition{
			{ID: "agent", Name: "Agent", DataType: schema.TypeText, Required: true},
			{ID: "duration", Name: "Duration", DataType: schema.TypeNumber},
			{ID: "call_date", Name: "CallDate", DataType: schema.TypeDate},
			{ID: "resolved", Name: "Resolved", DataType: schema.TypeBoolean},
		},
	}
}

func resolveFor(t *testing.T, row *records.Row, s *schema.SchemaDefinition) match.Resolution {
	t.Helper()
	res := match.Matcher{}.Resolve(row, s)
	if len(res) == 0 {
		t.Fatalf("no columns resolved")
	}
	return res
}

func TestMapRowCoercesTypes(t *testing.T) {
	s := callSchema()
	row := records.FromPairs(
		"Agent", "  Alice  ",
		"Duration", "120.5",
		"Call Date", "2025-03-01",
		"Resolved", "yes",
	)
	res := resolveFor(t, row, s)

	m := Mapper{}.MapRow(row, s, res)
	if len(m.MissingRequired) != 0 {
		t.Fatalf("MissingRequired = %v", m.MissingRequired)
	}

	if v, _ := m.Values.Get("agent"); v.String() != "Alice" {
		t.Fatalf("agent = %q, want trimmed Alice", v.String())
	}
	if v, _ := m.Values.Get("duration"); !isFloat(v, 120.5) {
		t.Fatalf("duration = %v, want 120.5", v)
	}
	v, ok := m.Values.Get("call_date")
	if !ok {
		t.Fatalf("call_date unset")
	}
	ts, _ := v.Time()
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("call_date = %v, want %v", ts, want)
	}
	if v, _ := m.Values.Get("resolved"); v.String() != "true" {
		t.Fatalf("resolved = %v, want true", v)
	}
}

func TestMapRowIdempotent(t *testing.T) {
	s := callSchema()
	row := records.FromPairs("Agent", "Bob", "Duration", "300", "Call Date", "2025-01-15", "Resolved", "no")
	res := resolveFor(t, row, s)

	first := Mapper{}.MapRow(row, s, res)
	second := Mapper{}.MapRow(row, s, res)

	a, b := first.Values.FieldIDs(), second.Values.FieldIDs()
	if len(a) != len(b) {
		t.Fatalf("field counts differ: %v vs %v", a, b)
	}
	for i, id := range a {
		if b[i] != id {
			t.Fatalf("field order differs at %d: %q vs %q", i, id, b[i])
		}
		va, _ := first.Values.Get(id)
		vb, _ := second.Values.Get(id)
		if va != vb {
			t.Fatalf("field %s differs: %v vs %v", id, va, vb)
		}
	}
}

func TestMapRowNumberFailClosed(t *testing.T) {
	s := callSchema()
	row := records.FromPairs("Agent", "Alice", "Duration", "not-a-number")
	res := resolveFor(t, row, s)

	m := Mapper{}.MapRow(row, s, res)
	v, ok := m.Values.Get("duration")
	if !ok {
		t.Fatalf("duration unset; numbers must coerce to 0, not disappear")
	}
	if !isFloat(v, 0) {
		t.Fatalf("duration = %v, want 0", v)
	}
}

func TestMapRowBadDateLeftUnset(t *testing.T) {
	s := callSchema()
	row := records.FromPairs("Agent", "Alice", "Call Date", "yesterday-ish")
	res := resolveFor(t, row, s)

	m := Mapper{}.MapRow(row, s, res)
	if _, ok := m.Values.Get("call_date"); ok {
		t.Fatalf("unparsable date produced a value")
	}
}

func TestMapRowLocaleNumbers(t *testing.T) {
	s := &schema.SchemaDefinition{
		ID: "s",
		Fields: []schema.FieldDefinition{
			{ID: "amount", Name: "Amount", DataType: schema.TypeNumber},
		},
	}
	row := records.FromPairs("Amount", "1.234,56")
	res := resolveFor(t, row, s)

	m := Mapper{Locale: language.German}.MapRow(row, s, res)
	v, _ := m.Values.Get("amount")
	if !isFloat(v, 1234.56) {
		t.Fatalf("amount = %v, want 1234.56", v)
	}
}

func TestMapRowMissingRequired(t *testing.T) {
	s := callSchema()
	row := records.FromPairs("Duration", "10")
	res := match.Matcher{}.Resolve(row, s)

	m := Mapper{}.MapRow(row, s, res)
	if len(m.MissingRequired) != 1 || m.MissingRequired[0] != "agent" {
		t.Fatalf("MissingRequired = %v, want [agent]", m.MissingRequired)
	}
	// The rest of the row still maps.
	if v, ok := m.Values.Get("duration"); !ok || !isFloat(v, 10) {
		t.Fatalf("duration = %v (%v), want 10", v, ok)
	}
}

func TestMapRowTimestampNormalizedToUTC(t *testing.T) {
	s := callSchema()
	row := records.FromPairs("Agent", "Alice", "Call Date", "2025-03-01T10:30:00+02:00")
	res := resolveFor(t, row, s)

	m := Mapper{}.MapRow(row, s, res)
	v, ok := m.Values.Get("call_date")
	if !ok {
		t.Fatalf("call_date unset")
	}
	ts, _ := v.Time()
	if ts.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", ts.Location())
	}
	if got := v.String(); got != "2025-03-01T08:30:00Z" {
		t.Fatalf("canonical form = %q", got)
	}
}

func isFloat(v schema.Value, want float64) bool {
	f, ok := v.Float()
	return ok && f == want
}
