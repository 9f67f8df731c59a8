package regstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"callsift/internal/schema"
)

// SchemaRow and FieldRow are the flat shapes backends scan from their
// schemas / schema_fields tables. Timestamps travel as RFC 3339 strings
// for reliable round-trips across sqlite, postgres, and mssql.
type SchemaRow struct {
	ID        string
	Name      string
	Version   int
	UpdatedAt string
}

type FieldRow struct {
	SchemaID    string
	Ord         int
	FieldID     string
	Name        string
	DisplayName string
	AliasesJSON string
	DataType    string
	Role        string
	Required    bool
}

// EncodeAliases renders a field's aliases for the aliases column.
func EncodeAliases(aliases []string) (string, error) {
	if len(aliases) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(aliases)
	if err != nil {
		return "", fmt.Errorf("encode aliases: %w", err)
	}
	return string(b), nil
}

// Assemble joins scanned schema and field rows into validated
// definitions, ordered by schema id with fields in stored order.
func Assemble(schemas []SchemaRow, fields []FieldRow) ([]schema.SchemaDefinition, error) {
	fieldsBySchema := make(map[string][]FieldRow, len(schemas))
	for _, f := range fields {
		fieldsBySchema[f.SchemaID] = append(fieldsBySchema[f.SchemaID], f)
	}

	out := make([]schema.SchemaDefinition, 0, len(schemas))
	for _, s := range schemas {
		updated, err := time.Parse(time.RFC3339Nano, s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("schema %s: bad updated_at %q: %w", s.ID, s.UpdatedAt, err)
		}

		frs := fieldsBySchema[s.ID]
		sort.SliceStable(frs, func(i, j int) bool { return frs[i].Ord < frs[j].Ord })

		def := schema.SchemaDefinition{
			ID:        s.ID,
			Name:      s.Name,
			Version:   s.Version,
			UpdatedAt: updated,
			Fields:    make([]schema.FieldDefinition, 0, len(frs)),
		}
		for _, f := range frs {
			var aliases []string
			if f.AliasesJSON != "" && f.AliasesJSON != "[]" {
				if err := json.Unmarshal([]byte(f.AliasesJSON), &aliases); err != nil {
					return nil, fmt.Errorf("schema %s field %s: bad aliases: %w", s.ID, f.FieldID, err)
				}
			}
			def.Fields = append(def.Fields, schema.FieldDefinition{
				ID:          f.FieldID,
				Name:        f.Name,
				DisplayName: f.DisplayName,
				Aliases:     aliases,
				DataType:    schema.DataType(f.DataType),
				Role:        schema.SemanticRole(f.Role),
				Required:    f.Required,
			})
		}

		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		out = append(out, def)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
