package analytics

import (
	"math"
	"sort"
	"time"

	"callsift/internal/metrics"
	"callsift/internal/schema"
)

// Engine runs schema-driven analytics over canonical call records.
//
// The zero Engine is ready to use. All methods are pure with respect to
// their inputs: records, schema, and view are never mutated, and each
// call returns a freshly constructed result. Callers that invoke the same
// computation repeatedly should memoize on (record count, schema id,
// view); the engine itself never caches.
type Engine struct {
	Metrics metrics.Backend
}

func (e Engine) observe(op string, start time.Time) {
	mb := metrics.OrNoop(e.Metrics)
	mb.IncCounter("callsift_analytics_ops_total", 1, metrics.Labels{"op": op})
	mb.ObserveHistogram("callsift_analytics_op_duration_seconds", time.Since(start).Seconds(), metrics.Labels{"op": op})
}

// AggregateByDimension groups records by the string form of the dimension
// field's value and folds the measure field per group.
//
// Behavior:
//   - Records missing the dimension value land in the "Unknown" group.
//   - Without a measure field the aggregation degrades to record count.
//   - Groups sort descending by measure; equal measures keep first-seen
//     order.
//   - Percentage is each group's share of the total measure, rounded to
//     1 decimal.
func (e Engine) AggregateByDimension(recs []schema.CallRecord, s *schema.SchemaDefinition, view View) AggregateResult {
	defer e.observe("aggregate", time.Now())

	if _, ok := s.Field(view.DimensionField); !ok {
		return AggregateResult{Diagnostic: missingFieldNote(view.DimensionField)}
	}

	var diag string
	useMeasure := view.MeasureField != ""
	if useMeasure {
		if _, ok := s.Field(view.MeasureField); !ok {
			// Degrade to counting; report the dangling reference.
			diag = missingFieldNote(view.MeasureField)
			useMeasure = false
		}
	}

	type bucket struct {
		order  int
		count  int
		values []float64
	}
	buckets := make(map[string]*bucket)
	var keys []string

	for _, rec := range recs {
		dim := UnknownDimension
		if v, ok := rec.Metadata.Get(view.DimensionField); ok {
			if sv := v.String(); sv != "" {
				dim = sv
			}
		}

		b := buckets[dim]
		if b == nil {
			b = &bucket{order: len(keys)}
			buckets[dim] = b
			keys = append(keys, dim)
		}
		b.count++

		if useMeasure {
			if v, ok := rec.Metadata.Get(view.MeasureField); ok {
				if f, ok := v.Float(); ok {
					b.values = append(b.values, f)
				}
			}
		}
	}

	groups := make([]Group, 0, len(keys))
	var total float64
	for _, k := range keys {
		b := buckets[k]
		measure := float64(b.count)
		if useMeasure {
			measure = fold(view.Aggregation, b.values, b.count)
		}
		total += measure
		groups = append(groups, Group{Dimension: k, Measure: round2(measure), Count: b.count})
	}

	for i := range groups {
		if total != 0 {
			groups[i].Percentage = round1(groups[i].Measure / total * 100)
		}
	}

	// Descending by measure; ties keep first-seen (insertion) order, which
	// SliceStable preserves because groups were appended in that order.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Measure > groups[j].Measure
	})

	return AggregateResult{Groups: groups, Diagnostic: diag}
}

// CalculateTrends buckets records by UTC calendar date and folds the
// view's measure per bucket.
//
// The timestamp field resolves by semantic role first, then falls back to
// the first date-typed field. With neither, the series is empty and the
// diagnostic says why; that is not an error.
func (e Engine) CalculateTrends(recs []schema.CallRecord, s *schema.SchemaDefinition, view View) TrendResult {
	defer e.observe("trends", time.Now())

	tsField, ok := s.FieldByRole(schema.RoleTimestamp)
	if !ok {
		tsField, ok = s.FieldByType(schema.TypeDate)
	}
	if !ok {
		return TrendResult{Diagnostic: "schema has no timestamp or date field"}
	}

	useMeasure := view.MeasureField != ""
	var diag string
	if useMeasure {
		if _, ok := s.Field(view.MeasureField); !ok {
			diag = missingFieldNote(view.MeasureField)
			useMeasure = false
		}
	}

	type bucket struct {
		count  int
		values []float64
	}
	buckets := make(map[time.Time]*bucket)

	for _, rec := range recs {
		v, ok := rec.Metadata.Get(tsField.ID)
		if !ok {
			continue
		}
		ts, ok := v.Time()
		if !ok {
			continue
		}
		day := ts.UTC().Truncate(24 * time.Hour)

		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		b.count++
		if useMeasure {
			if mv, ok := rec.Metadata.Get(view.MeasureField); ok {
				if f, ok := mv.Float(); ok {
					b.values = append(b.values, f)
				}
			}
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for day, b := range buckets {
		measure := float64(b.count)
		if useMeasure {
			measure = fold(view.Aggregation, b.values, b.count)
		}
		points = append(points, TrendPoint{Date: day, Measure: round2(measure), Count: b.count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return TrendResult{Points: points, Diagnostic: diag}
}

// Correlate computes the Pearson correlation coefficient between two
// numeric fields over all records carrying finite values for both.
//
// Fewer than 3 valid pairs yields {0, "none"} rather than an error; the
// estimate would be meaningless. The coefficient rounds to 3 decimals and
// classifies into bands: |r| >= 0.7 strong, >= 0.4 moderate, >= 0.2 weak,
// else none.
func (e Engine) Correlate(recs []schema.CallRecord, s *schema.SchemaDefinition, fieldA, fieldB string) Correlation {
	defer e.observe("correlate", time.Now())

	if _, ok := s.Field(fieldA); !ok {
		return Correlation{Strength: StrengthNone, Diagnostic: missingFieldNote(fieldA)}
	}
	if _, ok := s.Field(fieldB); !ok {
		return Correlation{Strength: StrengthNone, Diagnostic: missingFieldNote(fieldB)}
	}

	var xs, ys []float64
	for _, rec := range recs {
		x, ok := numericValue(rec, fieldA)
		if !ok {
			continue
		}
		y, ok := numericValue(rec, fieldB)
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	n := len(xs)
	if n < 3 {
		return Correlation{Coefficient: 0, Strength: StrengthNone, Pairs: n}
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
		sumY2 += ys[i] * ys[i]
	}

	fn := float64(n)
	num := fn*sumXY - sumX*sumY
	den := (fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY)
	if den <= 0 {
		// Zero variance on either side: no linear relationship to report.
		return Correlation{Coefficient: 0, Strength: StrengthNone, Pairs: n}
	}

	r := round3(num / math.Sqrt(den))
	return Correlation{Coefficient: r, Strength: classifyStrength(r), Pairs: n}
}

func classifyStrength(r float64) string {
	abs := r
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 0.7:
		return StrengthStrong
	case abs >= 0.4:
		return StrengthModerate
	case abs >= 0.2:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

// fold applies one aggregation over the collected measure values.
// An empty value set folds to 0 except count, which uses record count.
func fold(agg Aggregation, values []float64, count int) float64 {
	if agg == AggCount || agg == "" {
		return float64(count)
	}
	if len(values) == 0 {
		return 0
	}

	switch agg {
	case AggSum, AggAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		if agg == AggAvg {
			return sum / float64(len(values))
		}
		return sum
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	default:
		return float64(count)
	}
}
