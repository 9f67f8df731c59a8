// Package detect picks the best-fit schema for an incoming dataset.
//
// Detection inspects only the first row: schema fit is a property of the
// header layout, so the cost is independent of dataset size. The result
// carries the per-field column resolution so the row mapper reuses the
// exact columns that produced the confidence score.
package detect

import (
	"time"

	"callsift/internal/match"
	"callsift/internal/metrics"
	"callsift/internal/schema"
	"callsift/pkg/records"
)

// Detection is the outcome of a successful (or best-effort) detection.
type Detection struct {
	Schema     schema.SchemaDefinition
	Confidence float64
	Columns    match.Resolution

	// Verified is false when the detection was returned below the caller's
	// threshold (BestEffort); such a match must be confirmed manually.
	Verified bool
}

// Detector scores every registered schema against a dataset's first row.
// The zero Detector uses the default matcher and no metrics.
type Detector struct {
	Matcher match.Matcher
	Metrics metrics.Backend
}

// Detect returns the highest-scoring schema when its confidence exceeds
// threshold. The boolean is false when no schema clears the threshold;
// that is the no-confident-match condition, not an error, and the caller
// decides how to proceed (typically a manual schema pick or BestEffort).
//
// Determinism: given identical rows and registry contents the result is
// identical. Equal top scores resolve by most recent UpdatedAt, then by
// schema id; registry order never decides a winner.
func (d Detector) Detect(rows []*records.Row, reg *schema.Registry, threshold float64) (Detection, bool) {
	start := time.Now()
	det, ok := d.best(rows, reg)

	mb := metrics.OrNoop(d.Metrics)
	status := "no_match"
	if ok && det.Confidence > threshold {
		status = "ok"
	}
	mb.IncCounter("callsift_detect_total", 1, metrics.Labels{"status": status})
	mb.ObserveHistogram("callsift_detect_duration_seconds", time.Since(start).Seconds(), nil)
	if ok {
		mb.ObserveHistogram("callsift_detect_confidence", det.Confidence, nil)
	}

	if !ok || det.Confidence <= threshold {
		return Detection{}, false
	}
	det.Verified = true
	return det, true
}

// BestEffort returns the top-scoring schema regardless of threshold,
// flagged unverified. Callers must treat the result as a suggestion.
func (d Detector) BestEffort(rows []*records.Row, reg *schema.Registry) (Detection, bool) {
	det, ok := d.best(rows, reg)
	if !ok {
		return Detection{}, false
	}
	det.Verified = false
	return det, true
}

func (d Detector) best(rows []*records.Row, reg *schema.Registry) (Detection, bool) {
	if len(rows) == 0 || reg.Len() == 0 {
		return Detection{}, false
	}
	head := rows[0]
	if head.Len() == 0 {
		return Detection{}, false
	}

	var (
		found bool
		best  Detection
	)
	for _, s := range reg.Schemas() {
		score := d.Matcher.Score(head, &s)
		if score <= 0 {
			continue
		}
		if !found || beats(s, score, best.Schema, best.Confidence) {
			best = Detection{
				Schema:     s,
				Confidence: score,
				Columns:    d.Matcher.Resolve(head, &s),
			}
			found = true
		}
	}
	return best, found
}

// beats reports whether candidate (cs, cScore) wins over the incumbent.
// Higher score wins; score ties go to the more recently updated schema,
// then to the lexicographically smaller id for a stable total order.
func beats(cs schema.SchemaDefinition, cScore float64, is schema.SchemaDefinition, iScore float64) bool {
	if cScore != iScore {
		return cScore > iScore
	}
	if !cs.UpdatedAt.Equal(is.UpdatedAt) {
		return cs.UpdatedAt.After(is.UpdatedAt)
	}
	return cs.ID < is.ID
}
