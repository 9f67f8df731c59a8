// Package match scores how well a raw row's column headers align with a
// schema's canonical fields, and resolves the per-field winning column.
//
// Matching is best-effort and total: malformed or empty inputs score 0,
// they never produce an error. The same resolution that produces a score
// is reused by the row mapper, so scoring and mapping cannot disagree
// about which source column feeds a field.
package match

import (
	"callsift/internal/schema"
	"callsift/pkg/records"
)

// ColumnMatch records the winning source column for one schema field.
type ColumnMatch struct {
	Header string
	Weight float64
}

// Resolution maps canonical field ids to their winning source columns.
// Fields with no candidate above weight 0 are absent.
type Resolution map[string]ColumnMatch

// Matcher pairs a similarity strategy with the per-field resolution rule.
// The zero Matcher uses the default TieredScorer.
type Matcher struct {
	Scorer Scorer
}

func (m Matcher) scorer() Scorer {
	if m.Scorer != nil {
		return m.Scorer
	}
	return TieredScorer{}
}

// Resolve finds, for every schema field, the best-weighted source column
// in the row.
//
// Determinism: headers are visited in source column order and candidates
// in field declaration order; only a strictly greater weight replaces the
// current winner, so equal-weight ties keep the earliest column.
func (m Matcher) Resolve(row *records.Row, s *schema.SchemaDefinition) Resolution {
	if row == nil || row.Len() == 0 || s == nil || len(s.Fields) == 0 {
		return Resolution{}
	}

	sc := m.scorer()
	res := make(Resolution, len(s.Fields))

	for _, f := range s.Fields {
		best := ColumnMatch{}
		for _, h := range row.Headers() {
			w := fieldWeight(sc, h, f)
			if w > best.Weight {
				best = ColumnMatch{Header: h, Weight: w}
			}
		}
		if best.Weight > 0 {
			res[f.ID] = best
		}
	}
	return res
}

// Score computes the schema confidence for a row: the average best weight
// per field, scaled to [0,100]. An empty row or a fieldless schema scores
// 0, never an error.
func (m Matcher) Score(row *records.Row, s *schema.SchemaDefinition) float64 {
	if row == nil || row.Len() == 0 || s == nil || len(s.Fields) == 0 {
		return 0
	}

	res := m.Resolve(row, s)
	var sum float64
	for _, f := range s.Fields {
		if cm, ok := res[f.ID]; ok {
			sum += cm.Weight
		}
	}

	score := sum / float64(len(s.Fields)) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// fieldWeight returns the best similarity between a header and any of the
// field's match candidates (name, display name, aliases).
func fieldWeight(sc Scorer, header string, f schema.FieldDefinition) float64 {
	best := sc.Score(header, f.Name)
	if f.DisplayName != "" {
		if w := sc.Score(header, f.DisplayName); w > best {
			best = w
		}
	}
	for _, a := range f.Aliases {
		if w := sc.Score(header, a); w > best {
			best = w
		}
	}
	return best
}
