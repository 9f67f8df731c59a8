// Package records defines the raw tabular row shape exchanged between
// parsing collaborators and the schema-detection core.
//
// A Row is a mapping from the original source header string to the raw,
// untyped cell value, with the source column order preserved. No type
// coercion happens at this layer; cells carry whatever the parser produced
// (string for CSV/HTML, string/json.Number/bool for JSON).
package records

// Row is one parsed tabular record keyed by the original header text.
//
// Rows preserve column order so that downstream consumers can iterate
// headers deterministically. Rows are value-like: the core never mutates a
// Row it receives.
type Row struct {
	headers []string
	cells   map[string]any
}

// NewRow returns an empty Row with capacity for n columns.
func NewRow(n int) *Row {
	return &Row{
		headers: make([]string, 0, n),
		cells:   make(map[string]any, n),
	}
}

// Set stores a cell value under the given header. First write of a header
// establishes its position; later writes overwrite the value in place.
func (r *Row) Set(header string, v any) {
	if _, ok := r.cells[header]; !ok {
		r.headers = append(r.headers, header)
	}
	r.cells[header] = v
}

// Headers returns the source headers in original column order.
// The returned slice is shared; callers must not modify it.
func (r *Row) Headers() []string {
	if r == nil {
		return nil
	}
	return r.headers
}

// Value returns the raw cell for header and whether it was present.
func (r *Row) Value(header string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.cells[header]
	return v, ok
}

// Len returns the number of columns in the row.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.headers)
}

// FromPairs builds a Row from alternating header/value pairs, preserving
// the given order. It is primarily a test and fixture convenience.
func FromPairs(pairs ...any) *Row {
	r := NewRow(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h, ok := pairs[i].(string)
		if !ok {
			continue
		}
		r.Set(h, pairs[i+1])
	}
	return r
}
