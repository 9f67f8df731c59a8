package rowsource

import (
	"encoding/json"
	"io"
	"sort"

	"callsift/pkg/records"
)

// ReadJSON parses JSON input into rows.
//
// Accepted shapes:
//   - a top-level array of objects
//   - an envelope object whose first array-of-objects field holds the
//     records
//   - NDJSON / multiple top-level objects
//
// Nested objects flatten into dotted keys ("caller.name"). Numbers are
// kept as json.Number so no precision is lost before coercion. Key order
// inside a JSON object is not defined, so headers are emitted in sorted
// order for determinism.
//
// maxRecords bounds the number of rows read; <= 0 means unbounded.
func ReadJSON(r io.Reader, maxRecords int) ([]*records.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var objs []map[string]any
	emit := func(m map[string]any) bool {
		if m == nil {
			return true
		}
		objs = append(objs, m)
		return maxRecords <= 0 || len(objs) < maxRecords
	}

	switch v := root.(type) {
	case []any:
		for _, it := range v {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if !emit(m) {
				break
			}
		}

	case map[string]any:
		if slice := findObjectSlice(v); slice != nil {
			for _, m := range slice {
				if !emit(m) {
					break
				}
			}
		} else {
			emit(v)
		}
	}

	// NDJSON continuation: further top-level objects after the first.
	for maxRecords <= 0 || len(objs) < maxRecords {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			break
		}
		if !emit(obj) {
			break
		}
	}

	rows := make([]*records.Row, 0, len(objs))
	for _, obj := range objs {
		flat := make(map[string]any, len(obj))
		flatten("", obj, flat)

		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		row := records.NewRow(len(keys))
		for _, k := range keys {
			row.Set(k, flat[k])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// findObjectSlice unwraps a records-like envelope without hard-coding
// field names: the first field holding a non-empty array of objects wins.
func findObjectSlice(root map[string]any) []map[string]any {
	keys := make([]string, 0, len(root))
	for k := range root {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		arr, ok := root[k].([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		objs := make([]map[string]any, 0, len(arr))
		valid := true
		for _, elem := range arr {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				valid = false
				break
			}
			objs = append(objs, m)
		}
		if valid && len(objs) > 0 {
			return objs
		}
	}
	return nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flatten(key, m, out)
			continue
		}
		out[key] = v
	}
}
