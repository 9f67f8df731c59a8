package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"callsift/internal/regstore"
	"callsift/internal/schema"
)

func openTestStore(t *testing.T) regstore.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "schemas.db")
	st, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}
	return st
}

func testDef() schema.SchemaDefinition {
	return schema.SchemaDefinition{
		ID:        "sales",
		Name:      "Sales Calls",
		Version:   1,
		UpdatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Fields: []schema.FieldDefinition{
			{ID: "agent", Name: "Agent", DisplayName: "Agent Name", Aliases: []string{"rep", "seller"}, DataType: schema.TypeText, Role: schema.RoleParticipant, Required: true},
			{ID: "duration", Name: "Duration", DataType: schema.TypeNumber, Role: schema.RoleMeasure},
			{ID: "call_date", Name: "CallDate", DataType: schema.TypeDate, Role: schema.RoleTimestamp},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	want := testDef()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	defs, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("defs = %d, want 1", len(defs))
	}

	got := defs[0]
	if got.ID != want.ID || got.Name != want.Name || got.Version != want.Version {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
	if len(got.Fields) != len(want.Fields) {
		t.Fatalf("fields = %d, want %d", len(got.Fields), len(want.Fields))
	}
	for i, f := range want.Fields {
		g := got.Fields[i]
		if g.ID != f.ID || g.Name != f.Name || g.DisplayName != f.DisplayName ||
			g.DataType != f.DataType || g.Role != f.Role || g.Required != f.Required {
			t.Fatalf("field %d = %+v, want %+v", i, g, f)
		}
		if len(g.Aliases) != len(f.Aliases) {
			t.Fatalf("field %d aliases = %v, want %v", i, g.Aliases, f.Aliases)
		}
	}
}

func TestSaveUpsertsAndRewritesFields(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Save(ctx, testDef()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Second save drops a field and bumps the version; the old field row
	// must not survive.
	next := testDef()
	next.Version = 2
	next.Fields = next.Fields[:2]
	if err := st.Save(ctx, next); err != nil {
		t.Fatalf("Save (upsert): %v", err)
	}

	defs, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("defs = %d, want 1", len(defs))
	}
	if defs[0].Version != 2 {
		t.Fatalf("version = %d, want 2", defs[0].Version)
	}
	if len(defs[0].Fields) != 2 {
		t.Fatalf("fields = %d, want 2 after rewrite", len(defs[0].Fields))
	}
}

func TestSaveRejectsInvalidDefinition(t *testing.T) {
	st := openTestStore(t)

	if err := st.Save(context.Background(), schema.SchemaDefinition{ID: "bad"}); err == nil {
		t.Fatalf("invalid definition saved")
	}
}

func TestLoadAllEmpty(t *testing.T) {
	st := openTestStore(t)

	defs, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("defs = %d, want 0", len(defs))
	}
}
