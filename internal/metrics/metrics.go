// Package metrics defines the minimal observability seam used by the
// detection and analytics code.
//
// The core depends only on the Backend interface; concrete backends
// (Datadog in metrics/datadog, or a no-op) are chosen by the caller. The
// pure analytical code works identically with no backend installed.
package metrics

// Labels are free-form metric dimensions (e.g. {"schema": "acd_export"}).
type Labels map[string]string

// Backend receives counters and histogram observations.
//
// Implementations must be safe for concurrent use; callers may emit from
// independent goroutines.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Noop discards all observations. It is the default backend.
type Noop struct{}

func (Noop) IncCounter(string, float64, Labels)       {}
func (Noop) ObserveHistogram(string, float64, Labels) {}

// OrNoop returns b, or a Noop backend when b is nil, so call sites never
// need a nil check.
func OrNoop(b Backend) Backend {
	if b == nil {
		return Noop{}
	}
	return b
}

var _ Backend = Noop{}
