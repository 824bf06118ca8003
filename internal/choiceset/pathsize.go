package choiceset

import (
	"math"

	"github.com/madspDTU/rsuet/internal/graph"
)

// UpdatePathSizeFactors recomputes the path-size (overlap) factor PS_k for
// every path in od's restricted choice set:
//
//	PS_k = sum_{a in k} (len_a/len_k) * 1 / sum_{j in R'} delta(a,j) * (Lmin/Lj)^gamma
//
// a ranges over k's edges, len_a is the edge's cost contribution (GenCost),
// len_k is k's own cost, Lmin is the OD's minimum path cost, Lj is path j's
// cost, and delta(a,j) is 1 iff edge a lies on path j. Must be called
// whenever link costs change, since overlap is cost-weighted, not purely
// structural. gamma is the RUM's path-size exponent; gamma=0 degenerates
// to the classic Ben-Akiva/Bierlaire overlap count.
func UpdatePathSizeFactors(od *graph.OD, gamma float64) {
	paths := od.RestrictedChoiceSet
	if len(paths) == 0 {
		return
	}

	lMin := math.Inf(1)
	for _, p := range paths {
		if p.GenCost < lMin {
			lMin = p.GenCost
		}
	}

	weight := make([]float64, len(paths))
	for i, p := range paths {
		weight[i] = pathSizeWeight(lMin, p.GenCost, gamma)
	}

	edgeDenom := make(map[*graph.Edge]float64)
	for i, p := range paths {
		for _, e := range p.Edges {
			edgeDenom[e] += weight[i]
		}
	}

	for _, p := range paths {
		if p.GenCost <= graph.Epsilon {
			p.PS = 1
			continue
		}
		var ps float64
		for _, e := range p.Edges {
			denom := edgeDenom[e]
			if denom <= 0 {
				continue
			}
			ps += (e.GenCost / p.GenCost) / denom
		}
		if ps <= 0 {
			ps = 1
		}
		p.PS = ps
	}
}

// pathSizeWeight computes (Lmin/Lj)^gamma, treating a zero-cost path as
// weight 1 to avoid a division by zero on a degenerate (free) route.
func pathSizeWeight(lMin, lJ, gamma float64) float64 {
	if lJ <= graph.Epsilon {
		return 1
	}
	return math.Pow(lMin/lJ, gamma)
}
