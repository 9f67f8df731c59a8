package schema

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validDef(id string) SchemaDefinition {
	return SchemaDefinition{
		ID:        id,
		Name:      "Calls",
		Version:   1,
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Fields: []FieldDefinition{
			{ID: "agent", Name: "Agent", DataType: TypeText},
			{ID: "duration", Name: "Duration", DataType: TypeNumber},
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SchemaDefinition)
		ok     bool
	}{
		{"valid", func(*SchemaDefinition) {}, true},
		{"empty schema id", func(s *SchemaDefinition) { s.ID = "" }, false},
		{"no fields", func(s *SchemaDefinition) { s.Fields = nil }, false},
		{"empty field id", func(s *SchemaDefinition) { s.Fields[0].ID = "" }, false},
		{"duplicate field id", func(s *SchemaDefinition) { s.Fields[1].ID = "agent" }, false},
		{"empty field name", func(s *SchemaDefinition) { s.Fields[0].Name = "" }, false},
		{"unknown data type", func(s *SchemaDefinition) { s.Fields[0].DataType = "blob" }, false},
	}
	for _, tc := range cases {
		s := validDef("s")
		tc.mutate(&s)
		err := s.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("%s: Validate() = %v, want ok=%v", tc.name, err, tc.ok)
		}
	}
}

func TestFieldLookups(t *testing.T) {
	s := SchemaDefinition{
		ID: "s",
		Fields: []FieldDefinition{
			{ID: "a", Name: "A", DataType: TypeText},
			{ID: "when", Name: "When", DataType: TypeDate, Role: RoleTimestamp},
			{ID: "later", Name: "Later", DataType: TypeDate},
		},
	}

	if f, ok := s.Field("when"); !ok || f.Name != "When" {
		t.Fatalf("Field(when) = %+v, %v", f, ok)
	}
	if _, ok := s.Field("missing"); ok {
		t.Fatalf("Field(missing) found")
	}
	if f, ok := s.FieldByRole(RoleTimestamp); !ok || f.ID != "when" {
		t.Fatalf("FieldByRole = %+v, %v", f, ok)
	}
	if f, ok := s.FieldByType(TypeDate); !ok || f.ID != "when" {
		t.Fatalf("FieldByType must return the first date field, got %+v, %v", f, ok)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry([]SchemaDefinition{validDef("a"), validDef("a")}); err == nil {
		t.Fatalf("duplicate schema id accepted")
	}
	if _, err := NewRegistry([]SchemaDefinition{{ID: "bad"}}); err == nil {
		t.Fatalf("invalid definition accepted")
	}
}

type stubSource struct {
	defs []SchemaDefinition
	err  error
}

func (s stubSource) LoadAll(context.Context) ([]SchemaDefinition, error) {
	return s.defs, s.err
}

func TestRegistryReload(t *testing.T) {
	reg, err := NewRegistry([]SchemaDefinition{validDef("old")})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if err := reg.Reload(context.Background(), stubSource{defs: []SchemaDefinition{validDef("new")}}); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, ok := reg.Get("new"); !ok {
		t.Fatalf("reloaded schema missing")
	}
	if _, ok := reg.Get("old"); ok {
		t.Fatalf("stale schema still present after reload")
	}
}

func TestRegistryReloadKeepsOldOnFailure(t *testing.T) {
	reg, err := NewRegistry([]SchemaDefinition{validDef("keep")})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	boom := errors.New("boom")
	if err := reg.Reload(context.Background(), stubSource{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("Reload error = %v, want wrapped boom", err)
	}
	if _, ok := reg.Get("keep"); !ok {
		t.Fatalf("registry lost contents after failed reload")
	}

	// Validation failures also leave the registry untouched.
	if err := reg.Reload(context.Background(), stubSource{defs: []SchemaDefinition{{ID: "bad"}}}); err == nil {
		t.Fatalf("invalid reload accepted")
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d after failed reload, want 1", reg.Len())
	}
}
