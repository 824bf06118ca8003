package graph

import "math"

// ODKey identifies an origin-destination pair.
type ODKey struct {
	O int64
	D int64
}

// OD is an origin-destination demand with its universal and restricted
// choice sets.
type OD struct {
	O      int64
	D      int64
	Demand float64

	// R is the universal (acyclic) choice set; populated only when
	// generateUniversalChoiceSet is invoked as a diagnostic.
	R []*Path

	// RestrictedChoiceSet is the active set carrying flow.
	RestrictedChoiceSet []*Path

	MinimumCost            float64
	MinimumTransformedCost float64

	// PathWasAddedDuringColumnGeneration flags that the most recent
	// column-generation pass inserted a new path for this OD.
	PathWasAddedDuringColumnGeneration bool
}

func (od *OD) Key() ODKey {
	return ODKey{O: od.O, D: od.D}
}

// AddPath appends p to RestrictedChoiceSet iff no existing member has the
// same edge sequence. Returns true if p was added.
func (od *OD) AddPath(p *Path) bool {
	for _, existing := range od.RestrictedChoiceSet {
		if existing.Equal(p) {
			return false
		}
	}
	od.RestrictedChoiceSet = append(od.RestrictedChoiceSet, p)
	return true
}

// RefreshMinimumCost recomputes MinimumCost as the minimum GenCost over the
// restricted choice set.
func (od *OD) RefreshMinimumCost() {
	min := math.Inf(1)
	for _, p := range od.RestrictedChoiceSet {
		if p.GenCost < min {
			min = p.GenCost
		}
	}
	od.MinimumCost = min
}

// TotalFlow sums Flow over the restricted choice set.
func (od *OD) TotalFlow() float64 {
	var total float64
	for _, p := range od.RestrictedChoiceSet {
		total += p.Flow
	}
	return total
}

// CheapestPath returns the lowest-GenCost path in the restricted choice set,
// or nil if it is empty.
func (od *OD) CheapestPath() *Path {
	var best *Path
	for _, p := range od.RestrictedChoiceSet {
		if best == nil || p.GenCost < best.GenCost {
			best = p
		}
	}
	return best
}
