package match

import "strings"

// Scorer computes a similarity weight in [0,1] between a source column
// header and a candidate field name. It is the single seam for swapping
// matching algorithms without touching the detector.
type Scorer interface {
	Score(header, candidate string) float64
}

const (
	weightExact   = 1.0
	weightContain = 0.6
)

// TieredScorer implements the default three-tier rule:
//
//	exact normalized match              -> 1.0
//	substring containment (either way)  -> 0.6
//	token overlap                       -> Jaccard similarity scaled below
//	                                       the containment tier, floor 0
type TieredScorer struct{}

func (TieredScorer) Score(header, candidate string) float64 {
	h := Normalize(header)
	c := Normalize(candidate)
	if h == "" || c == "" {
		return 0
	}
	if h == c {
		return weightExact
	}
	if strings.Contains(h, c) || strings.Contains(c, h) {
		return weightContain
	}
	return weightContain * jaccard(Tokens(header), Tokens(candidate))
}

// jaccard returns |a∩b| / |a∪b| over token sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	union := len(set)
	inter := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

var _ Scorer = TieredScorer{}
