package metrics

import "testing"

type countingBackend struct {
	counters int
	observes int
}

func (c *countingBackend) IncCounter(string, float64, Labels)       { c.counters++ }
func (c *countingBackend) ObserveHistogram(string, float64, Labels) { c.observes++ }

func TestOrNoop(t *testing.T) {
	b := OrNoop(nil)
	// Must be safe to call without panicking.
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, Labels{"k": "v"})

	real := &countingBackend{}
	if OrNoop(real) != Backend(real) {
		t.Fatalf("OrNoop replaced a non-nil backend")
	}
	OrNoop(real).IncCounter("x", 1, nil)
	if real.counters != 1 {
		t.Fatalf("counter not forwarded")
	}
}
