package schema

import (
	"context"
	"fmt"
)

// Source loads schema definitions from a persistence collaborator.
// Implementations live under internal/regstore.
type Source interface {
	LoadAll(ctx context.Context) ([]SchemaDefinition, error)
}

// Registry is an explicitly owned, ordered collection of schema
// definitions.
//
// Ownership model:
//   - Built once (NewRegistry) or replaced wholesale (Reload).
//   - Read paths (detection, mapping, analytics) never mutate it, so
//     concurrent readers need no coordination as long as the owner does not
//     Reload concurrently with reads.
type Registry struct {
	schemas []SchemaDefinition
	byID    map[string]int
}

// NewRegistry validates every definition and builds a registry preserving
// the given order. A structurally invalid definition fails construction.
func NewRegistry(defs []SchemaDefinition) (*Registry, error) {
	r := &Registry{
		schemas: make([]SchemaDefinition, 0, len(defs)),
		byID:    make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate schema id %q", d.ID)
		}
		r.byID[d.ID] = len(r.schemas)
		r.schemas = append(r.schemas, d)
	}
	return r, nil
}

// Reload replaces the registry contents from a Source. The previous
// contents are kept when loading or validation fails.
func (r *Registry) Reload(ctx context.Context, src Source) error {
	defs, err := src.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("registry reload: %w", err)
	}
	fresh, err := NewRegistry(defs)
	if err != nil {
		return fmt.Errorf("registry reload: %w", err)
	}
	r.schemas = fresh.schemas
	r.byID = fresh.byID
	return nil
}

// Schemas returns the definitions in registry order. The slice is shared;
// callers must treat it as read-only.
func (r *Registry) Schemas() []SchemaDefinition {
	if r == nil {
		return nil
	}
	return r.schemas
}

// Get returns the schema with the given id.
func (r *Registry) Get(id string) (SchemaDefinition, bool) {
	if r == nil {
		return SchemaDefinition{}, false
	}
	i, ok := r.byID[id]
	if !ok {
		return SchemaDefinition{}, false
	}
	return r.schemas[i], true
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schemas)
}
