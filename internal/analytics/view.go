// Package analytics computes descriptive statistics over canonical call
// records, driven entirely by schema and view metadata. No field identity
// is hard-coded anywhere in this package.
//
// Failure semantics: every operation is total for well-formed inputs.
// A view referencing a field id absent from the schema degrades to an
// empty/zero result carrying a diagnostic note; data-shape problems
// (missing values, non-numeric cells) are handled by exclusion, never by
// an error return.
//
// Rounding convention, applied consistently so test comparisons can be
// exact: statistics round to 2 decimals, percentages to 1, correlation
// coefficients to 3.
package analytics

import (
	"fmt"
	"math"
	"time"
)

// Aggregation selects how measure values fold within a group or bucket.
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
	AggCount Aggregation = "count"
)

// View declaratively describes one analytics computation: which field
// forms the groups, which (optional) field is measured, and how.
type View struct {
	DimensionField string
	MeasureField   string
	Aggregation    Aggregation
}

// UnknownDimension is the sentinel group for records whose dimension
// value is missing.
const UnknownDimension = "Unknown"

// Group is one aggregated dimension bucket.
type Group struct {
	Dimension  string
	Measure    float64
	Count      int
	Percentage float64
}

// AggregateResult is the outcome of AggregateByDimension.
type AggregateResult struct {
	Groups     []Group
	Diagnostic string
}

// TrendPoint is one calendar-date bucket of a trend series.
type TrendPoint struct {
	Date    time.Time
	Measure float64
	Count   int
}

// TrendResult is the outcome of CalculateTrends.
type TrendResult struct {
	Points     []TrendPoint
	Diagnostic string
}

// Correlation strength bands, by absolute coefficient.
const (
	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
	StrengthWeak     = "weak"
	StrengthNone     = "none"
)

// Correlation is the outcome of Correlate.
type Correlation struct {
	Coefficient float64
	Strength    string
	Pairs       int
	Diagnostic  string
}

// ScatterPoint pairs two numeric field values from one record.
type ScatterPoint struct {
	X float64
	Y float64
}

// HistogramBucket is one equal-width value bucket.
type HistogramBucket struct {
	Min   float64
	Max   float64
	Count int
}

// Statistics summarizes one numeric field.
type Statistics struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// ValueCount is one ranked dimension value.
type ValueCount struct {
	Value string
	Count int
}

// round helpers implementing the package rounding convention.

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func missingFieldNote(fieldID string) string {
	return fmt.Sprintf("field %q is not defined by the schema", fieldID)
}
