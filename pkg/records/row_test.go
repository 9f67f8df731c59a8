package records

import "testing"

func TestRowPreservesColumnOrder(t *testing.T) {
	r := NewRow(3)
	r.Set("c", 1)
	r.Set("a", 2)
	r.Set("b", 3)

	h := r.Headers()
	if len(h) != 3 || h[0] != "c" || h[1] != "a" || h[2] != "b" {
		t.Fatalf("Headers = %v, want [c a b]", h)
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
}

func TestRowOverwriteKeepsPosition(t *testing.T) {
	r := NewRow(2)
	r.Set("a", 1)
	r.Set("b", 2)
	r.Set("a", 9)

	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if v, ok := r.Value("a"); !ok || v != 9 {
		t.Fatalf("Value(a) = %v, %v", v, ok)
	}
	if h := r.Headers(); h[0] != "a" {
		t.Fatalf("Headers = %v, overwrite moved the column", h)
	}
}

func TestNilRowAccessors(t *testing.T) {
	var r *Row
	if r.Headers() != nil {
		t.Fatalf("nil Headers != nil")
	}
	if _, ok := r.Value("x"); ok {
		t.Fatalf("nil Value found something")
	}
	if r.Len() != 0 {
		t.Fatalf("nil Len != 0")
	}
}

func TestFromPairs(t *testing.T) {
	r := FromPairs("a", 1, "b", "two", 3, "ignored-key", "trailing")
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (non-string keys and trailing values drop)", r.Len())
	}
	if v, _ := r.Value("b"); v != "two" {
		t.Fatalf("Value(b) = %v", v)
	}
}
