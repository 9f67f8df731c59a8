package rowsource

import (
	"encoding/csv"
	"io"
	"strings"

	"callsift/pkg/records"
)

// ReadCSV parses CSV input into rows keyed by the header line.
//
// Best-effort semantics:
//   - records with a field count different from the header are skipped
//   - header and cell text are trimmed
//   - an input with only a header (or nothing) yields no rows, not an
//     error
func ReadCSV(r io.Reader, delimiter rune) ([]*records.Row, error) {
	if delimiter == 0 {
		delimiter = ','
	}

	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1 // validated manually against the header
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []*records.Row
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return rows, err
		}
		if len(rec) != len(headers) {
			continue
		}

		row := records.NewRow(len(headers))
		for i, h := range headers {
			row.Set(h, strings.TrimSpace(rec[i]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
