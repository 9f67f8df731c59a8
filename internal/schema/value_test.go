package schema

import (
	"testing"
	"time"
)

func TestValueFloat(t *testing.T) {
	if f, ok := Number(3.5).Float(); !ok || f != 3.5 {
		t.Fatalf("Number.Float = %v, %v", f, ok)
	}
	if f, ok := Bool(true).Float(); !ok || f != 1 {
		t.Fatalf("Bool(true).Float = %v, %v", f, ok)
	}
	if f, ok := Bool(false).Float(); !ok || f != 0 {
		t.Fatalf("Bool(false).Float = %v, %v", f, ok)
	}
	if _, ok := Text("12").Float(); ok {
		t.Fatalf("Text.Float succeeded; text is never parsed here")
	}
	if _, ok := Date(time.Now()).Float(); ok {
		t.Fatalf("Date.Float succeeded")
	}
}

func TestDateNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	v := Date(time.Date(2025, 3, 1, 10, 30, 0, 0, loc))

	ts, ok := v.Time()
	if !ok {
		t.Fatalf("no time")
	}
	if ts.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", ts.Location())
	}
	if got := v.String(); got != "2025-03-01T08:30:00Z" {
		t.Fatalf("String = %q", got)
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Text("hello"), "hello"},
		{Number(2), "2"},
		{Number(2.5), "2.5"},
		{Bool(true), "true"},
		{Value{}, ""},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Fatalf("String(%+v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestMetadataPreservesInsertionOrder(t *testing.T) {
	md := NewMetadata(3)
	md.Set("b", Text("1"))
	md.Set("a", Text("2"))
	md.Set("b", Text("3")) // overwrite keeps position

	ids := md.FieldIDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Fatalf("FieldIDs = %v, want [b a]", ids)
	}
	if v, _ := md.Get("b"); v.String() != "3" {
		t.Fatalf("overwrite lost: %v", v)
	}

	var nilMD *Metadata
	if _, ok := nilMD.Get("x"); ok {
		t.Fatalf("nil metadata returned a value")
	}
	if nilMD.Len() != 0 {
		t.Fatalf("nil metadata Len != 0")
	}
}
