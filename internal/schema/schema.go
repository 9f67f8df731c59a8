// Package schema defines the canonical data model shared by the matcher,
// detector, row mapper, and analytics engine: schema definitions with
// aliased fields, tagged metadata values, and call records.
//
// Design constraints:
//   - Definitions are immutable once registered; edits bump Version and
//     UpdatedAt through the owning collaborator, never on read paths.
//   - Structural validation failures are programmer errors surfaced by
//     Validate; match/detect/map paths never mutate or re-validate.
package schema

import (
	"fmt"
	"time"
)

// DataType is the declared type of a canonical field.
type DataType string

const (
	TypeText    DataType = "text"
	TypeNumber  DataType = "number"
	TypeDate    DataType = "date"
	TypeBoolean DataType = "boolean"
)

func (t DataType) valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeBoolean:
		return true
	}
	return false
}

// SemanticRole optionally tags a field's meaning, enabling role-based
// resolution (e.g. trend analysis finding "the" timestamp field) when no
// explicit field id is supplied.
type SemanticRole string

const (
	RoleNone        SemanticRole = ""
	RoleIdentifier  SemanticRole = "identifier"
	RoleTimestamp   SemanticRole = "timestamp"
	RoleParticipant SemanticRole = "participant"
	RoleMeasure     SemanticRole = "measure"
	RoleCategory    SemanticRole = "category"
	RoleOutcome     SemanticRole = "outcome"
)

// FieldDefinition describes one canonical field of a schema.
//
// Name, DisplayName, and Aliases are the strings the matcher compares
// against source column headers. ID is the stable canonical identity used
// in metadata mappings and analytics views.
type FieldDefinition struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name,omitempty"`
	Aliases     []string     `json:"aliases,omitempty"`
	DataType    DataType     `json:"data_type"`
	Role        SemanticRole `json:"role,omitempty"`
	Required    bool         `json:"required,omitempty"`
}

// SchemaDefinition is one registered schema: an ordered list of fields plus
// identity and versioning metadata.
type SchemaDefinition struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Fields    []FieldDefinition `json:"fields"`
}

// Field returns the field with the given id, if any.
func (s *SchemaDefinition) Field(id string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldByRole returns the first field carrying the given semantic role.
func (s *SchemaDefinition) FieldByRole(role SemanticRole) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Role == role {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldByType returns the first field with the given declared data type.
func (s *SchemaDefinition) FieldByType(t DataType) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.DataType == t {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Validate checks structural invariants: non-empty ids, unique field ids,
// known data types. A failure here is a programmer/config error; runtime
// match and analytics paths assume definitions have already passed.
func (s *SchemaDefinition) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("schema: empty id")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", s.ID)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f.ID == "" {
			return fmt.Errorf("schema %s: field %d: empty id", s.ID, i)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("schema %s: duplicate field id %q", s.ID, f.ID)
		}
		seen[f.ID] = struct{}{}
		if f.Name == "" {
			return fmt.Errorf("schema %s: field %s: empty name", s.ID, f.ID)
		}
		if !f.DataType.valid() {
			return fmt.Errorf("schema %s: field %s: unknown data type %q", s.ID, f.ID, f.DataType)
		}
	}
	return nil
}
