package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"callsift/internal/schema"
)

// numericValue extracts a finite numeric value for a field from a record.
// Missing values, non-numeric kinds, NaN, and infinities are excluded.
func numericValue(rec schema.CallRecord, fieldID string) (float64, bool) {
	v, ok := rec.Metadata.Get(fieldID)
	if !ok {
		return 0, false
	}
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// GenerateScatterData extracts (x, y) pairs for two numeric fields.
// Records missing either value are excluded; a dangling field reference
// yields no points.
func (e Engine) GenerateScatterData(recs []schema.CallRecord, s *schema.SchemaDefinition, fieldX, fieldY string) []ScatterPoint {
	defer e.observe("scatter", time.Now())

	if _, ok := s.Field(fieldX); !ok {
		return nil
	}
	if _, ok := s.Field(fieldY); !ok {
		return nil
	}

	var out []ScatterPoint
	for _, rec := range recs {
		x, ok := numericValue(rec, fieldX)
		if !ok {
			continue
		}
		y, ok := numericValue(rec, fieldY)
		if !ok {
			continue
		}
		out = append(out, ScatterPoint{X: x, Y: y})
	}
	return out
}

// GenerateHistogram buckets a numeric field into bucketCount equal-width
// ranges.
//
// Every bucket is inclusive on its lower bound and exclusive on its upper
// bound, except the final bucket, which is inclusive on both ends so the
// maximum value is always counted. Identical min and max degenerate to a
// single bucket holding every value.
func (e Engine) GenerateHistogram(recs []schema.CallRecord, s *schema.SchemaDefinition, fieldID string, bucketCount int) []HistogramBucket {
	defer e.observe("histogram", time.Now())

	values := e.numericColumn(recs, s, fieldID)
	if len(values) == 0 || bucketCount <= 0 {
		return nil
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if min == max {
		return []HistogramBucket{{Min: round2(min), Max: round2(max), Count: len(values)}}
	}

	width := (max - min) / float64(bucketCount)
	buckets := make([]HistogramBucket, bucketCount)
	for i := range buckets {
		buckets[i].Min = round2(min + float64(i)*width)
		buckets[i].Max = round2(min + float64(i+1)*width)
	}
	buckets[bucketCount-1].Max = round2(max)

	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

// CalculatePercentile returns the p-th percentile (0..100) of values
// using linear interpolation between order statistics, rounded to 2
// decimals. An empty input yields 0.
func (e Engine) CalculatePercentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if p <= 0 {
		return round2(sorted[0])
	}
	if p >= 100 {
		return round2(sorted[len(sorted)-1])
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return round2(sorted[lo])
	}
	frac := rank - float64(lo)
	return round2(sorted[lo] + (sorted[hi]-sorted[lo])*frac)
}

// GetTopValues ranks the most frequent string forms of a field, capped at
// limit. Ties keep first-seen order. Records without the field are
// excluded.
func (e Engine) GetTopValues(recs []schema.CallRecord, s *schema.SchemaDefinition, fieldID string, limit int) []ValueCount {
	defer e.observe("top_values", time.Now())

	if _, ok := s.Field(fieldID); !ok {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, rec := range recs {
		v, ok := rec.Metadata.Get(fieldID)
		if !ok {
			continue
		}
		sv := v.String()
		if sv == "" {
			continue
		}
		if _, seen := counts[sv]; !seen {
			order = append(order, sv)
		}
		counts[sv]++
	}

	out := make([]ValueCount, 0, len(order))
	for _, k := range order {
		out = append(out, ValueCount{Value: k, Count: counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CalculateStatistics summarizes a numeric field: count, min, max, mean,
// median, and population standard deviation, all rounded to 2 decimals.
// The median equals CalculatePercentile(values, 50) by construction.
func (e Engine) CalculateStatistics(recs []schema.CallRecord, s *schema.SchemaDefinition, fieldID string) Statistics {
	defer e.observe("statistics", time.Now())

	values := e.numericColumn(recs, s, fieldID)
	return e.SummarizeValues(values)
}

// SummarizeValues computes the Statistics summary over raw values.
// It backs CalculateStatistics and is exported for callers that already
// hold an extracted numeric column.
func (e Engine) SummarizeValues(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return Statistics{
		Count:  len(values),
		Min:    round2(min),
		Max:    round2(max),
		Mean:   round2(mean),
		Median: e.CalculatePercentile(values, 50),
		StdDev: round2(math.Sqrt(variance)),
	}
}

// FilterOp selects the comparison applied by one filter term.
type FilterOp string

const (
	OpEquals   FilterOp = "eq"
	OpContains FilterOp = "contains"
	OpGT       FilterOp = "gt"
	OpGTE      FilterOp = "gte"
	OpLT       FilterOp = "lt"
	OpLTE      FilterOp = "lte"
)

// Filter is one predicate over a canonical field. Numeric operators use
// Number; Equals and Contains compare string forms case-insensitively.
type Filter struct {
	FieldID string
	Op      FilterOp
	Text    string
	Number  float64
}

// FilterCalls returns the records matching every filter term. Records
// missing a referenced value are excluded, as are terms referencing
// fields the schema does not define.
func (e Engine) FilterCalls(recs []schema.CallRecord, s *schema.SchemaDefinition, filters []Filter) []schema.CallRecord {
	defer e.observe("filter", time.Now())

	if len(filters) == 0 {
		return append([]schema.CallRecord(nil), recs...)
	}

	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if _, ok := s.Field(f.FieldID); ok {
			active = append(active, f)
		}
	}

	var out []schema.CallRecord
	for _, rec := range recs {
		if matchesAll(rec, active) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll(rec schema.CallRecord, filters []Filter) bool {
	for _, f := range filters {
		if !matchesFilter(rec, f) {
			return false
		}
	}
	return true
}

func matchesFilter(rec schema.CallRecord, f Filter) bool {
	switch f.Op {
	case OpEquals, OpContains:
		v, ok := rec.Metadata.Get(f.FieldID)
		if !ok {
			return false
		}
		have := strings.ToLower(v.String())
		want := strings.ToLower(f.Text)
		if f.Op == OpEquals {
			return have == want
		}
		return strings.Contains(have, want)

	case OpGT, OpGTE, OpLT, OpLTE:
		n, ok := numericValue(rec, f.FieldID)
		if !ok {
			return false
		}
		switch f.Op {
		case OpGT:
			return n > f.Number
		case OpGTE:
			return n >= f.Number
		case OpLT:
			return n < f.Number
		default:
			return n <= f.Number
		}

	default:
		return false
	}
}

// numericColumn extracts the finite numeric values of one field across
// all records. A dangling field reference yields nil.
func (e Engine) numericColumn(recs []schema.CallRecord, s *schema.SchemaDefinition, fieldID string) []float64 {
	if _, ok := s.Field(fieldID); !ok {
		return nil
	}
	var out []float64
	for _, rec := range recs {
		if f, ok := numericValue(rec, fieldID); ok {
			out = append(out, f)
		}
	}
	return out
}
