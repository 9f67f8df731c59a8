package schema

// Status tracks the call-record lifecycle. Records are created at import
// time and only moved forward by external collaborators (audio attachment,
// evaluation); this core never deletes a record.
type Status string

const (
	StatusImported Status = "imported"
	StatusEnriched Status = "enriched"
	StatusReviewed Status = "reviewed"
)

// Metadata is an ordered mapping from canonical field id to a tagged value.
//
// Order follows the schema's field order at mapping time, which keeps
// rendered output and test expectations deterministic.
type Metadata struct {
	ids    []string
	values map[string]Value
}

// NewMetadata returns an empty Metadata with capacity for n fields.
func NewMetadata(n int) *Metadata {
	return &Metadata{
		ids:    make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// Set stores a value under the canonical field id. First write establishes
// the position of the id.
func (m *Metadata) Set(fieldID string, v Value) {
	if _, ok := m.values[fieldID]; !ok {
		m.ids = append(m.ids, fieldID)
	}
	m.values[fieldID] = v
}

// Get returns the value for a field id and whether it is present.
func (m *Metadata) Get(fieldID string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[fieldID]
	return v, ok
}

// FieldIDs returns the populated field ids in insertion order.
func (m *Metadata) FieldIDs() []string {
	if m == nil {
		return nil
	}
	return m.ids
}

// Len returns the number of populated fields.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// CallRecord is one ingested call with canonical metadata.
type CallRecord struct {
	ID       string
	SchemaID string
	Metadata *Metadata
	Status   Status
}
