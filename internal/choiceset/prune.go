// Package choiceset manages each OD's restricted choice set: the active
// paths carrying flow, the per-path overlap (path-size) factor, and
// threshold-based pruning.
package choiceset

import (
	"math"
	"sort"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/internal/rum"
)

// AddPath adds p to od's restricted choice set iff no existing member has
// the same edge sequence (thin wrapper over graph.OD.AddPath so callers
// only need to import this package for choice-set operations).
func AddPath(od *graph.OD, p *graph.Path) bool {
	return od.AddPath(p)
}

// PruneAboveThreshold removes every path in od whose GenCost exceeds
// threshold, redistributing the removed flow across the kept paths in
// proportion to r's choice probabilities on the kept set.
// If every path would be removed, the cheapest removed path is
// restored so demand integrity (sum flow == demand) is preserved. Returns
// the number of paths actually removed. All flow writes go through
// Path.SetFlow, so a NaN/Inf produced by a degenerate enumerator fails
// here instead of propagating into the next network load.
func PruneAboveThreshold(od *graph.OD, threshold float64, r *rum.RUM) (int, error) {
	var kept, removed []*graph.Path
	for _, p := range od.RestrictedChoiceSet {
		if p.GenCost > threshold {
			removed = append(removed, p)
		} else {
			kept = append(kept, p)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	removedFlow := 0.0
	for _, p := range removed {
		removedFlow += p.Flow
		if err := p.SetFlow(0); err != nil {
			return 0, err
		}
		p.MarkedForRemoval = true
	}

	if len(kept) == 0 {
		// Empty-set-after-prune restoration: the cheapest removed path
		// comes back so the OD always has somewhere to put its demand.
		sort.Slice(removed, func(i, j int) bool { return removed[i].GenCost < removed[j].GenCost })
		restored := removed[0]
		restored.MarkedForRemoval = false
		if err := restored.SetFlow(removedFlow); err != nil {
			return 0, err
		}
		od.RestrictedChoiceSet = []*graph.Path{restored}
		return len(removed) - 1, nil
	}

	if err := distributeProportionally(kept, removedFlow, r); err != nil {
		return 0, err
	}
	od.RestrictedChoiceSet = kept
	return len(removed), nil
}

// distributeProportionally adds extraFlow to kept's paths in proportion to
// r's enumerator over the kept set, falling back to a uniform split when
// every enumerator is zero, the same fallback the inner loop uses.
func distributeProportionally(kept []*graph.Path, extraFlow float64, r *rum.RUM) error {
	if extraFlow <= 0 {
		return nil
	}

	minCost := math.Inf(1)
	for _, p := range kept {
		if p.GenCost < minCost {
			minCost = p.GenCost
		}
	}

	enumerators := make([]float64, len(kept))
	var total float64
	for i, p := range kept {
		e := r.Enumerator(p, minCost)
		enumerators[i] = e
		total += e
	}

	if total <= 0 {
		share := extraFlow / float64(len(kept))
		for _, p := range kept {
			if err := p.SetFlow(p.Flow + share); err != nil {
				return err
			}
		}
		return nil
	}

	for i, p := range kept {
		if err := p.SetFlow(p.Flow + extraFlow*enumerators[i]/total); err != nil {
			return err
		}
	}
	return nil
}
