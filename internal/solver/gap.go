package solver

import (
	"math"

	"github.com/madspDTU/rsuet/internal/graph"
)

// ConvergenceRow is one entry of the append-only convergence record.
// PathsAdded and PathsPruned count what this outer iteration's column
// generation and threshold pruning did to the choice sets; they feed the
// metrics counters but are not part of the convergence CSV.
type ConvergenceRow struct {
	Outer            int
	Inner            int
	RelGapUsed       float64
	MaxChoiceSetSize int
	AvgChoiceSetSize float64

	PathsAdded  int
	PathsPruned int
}

// relGapUsed computes the relative gap over used routes:
//
//	sum_od sum_k flow_k * (T_k - minT_od)  /  sum_od sum_k flow_k * T_k
//
// with T_k = flow_k / e_k the transformed cost and minT_od the minimum
// over used paths. Enumerators are evaluated against omega, the upper
// reference cost, so paths the outer threshold truncates carry e_k = 0,
// T_k = 0, and are excluded from both sums.
func (d *Driver) relGapUsed() float64 {
	var num, den float64
	for _, od := range d.net.AllODs() {
		minT := math.Inf(1)
		for _, p := range od.RestrictedChoiceSet {
			e := d.gapEnumerator(p, od.MinimumCost)
			p.RefreshTransformedCost(e)
			if graph.IsPositive(p.Flow) && p.TransformedCost > 0 && p.TransformedCost < minT {
				minT = p.TransformedCost
			}
		}
		if math.IsInf(minT, 1) {
			od.MinimumTransformedCost = 0
			continue
		}
		od.MinimumTransformedCost = minT

		for _, p := range od.RestrictedChoiceSet {
			if p.TransformedCost <= 0 {
				continue
			}
			num += p.Flow * (p.TransformedCost - minT)
			den += p.Flow * p.TransformedCost
		}
	}
	if den <= 0 {
		return 0
	}
	return num / den
}

// gapEnumerator is the RUM enumerator truncated at omega: the gap measure
// always uses the unrestricted-logit master problem of the outer check,
// whatever the inner loop did.
func (d *Driver) gapEnumerator(p *graph.Path, minimumCost float64) float64 {
	if p.GenCost > d.thresholds.Omega.Threshold(minimumCost) {
		return 0
	}
	return d.rum.Enumerator(p, minimumCost)
}

// recordRow snapshots the convergence state after one outer iteration.
func (d *Driver) recordRow(outer, inner, added, pruned int, gap float64) ConvergenceRow {
	maxSize, avgSize := d.choiceSetStats()
	return ConvergenceRow{
		Outer:            outer,
		Inner:            inner,
		RelGapUsed:       gap,
		MaxChoiceSetSize: maxSize,
		AvgChoiceSetSize: avgSize,
		PathsAdded:       added,
		PathsPruned:      pruned,
	}
}

// choiceSetStats returns the largest and average restricted choice set
// size over all positive-demand ODs.
func (d *Driver) choiceSetStats() (int, float64) {
	maxSize := 0
	total := 0
	count := 0
	for _, od := range d.net.AllODs() {
		size := len(od.RestrictedChoiceSet)
		if size > maxSize {
			maxSize = size
		}
		total += size
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return maxSize, float64(total) / float64(count)
}
