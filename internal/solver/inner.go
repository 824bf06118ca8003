package solver

import (
	"context"

	"github.com/madspDTU/rsuet/internal/choiceset"
	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/internal/rum"
)

// refreshCosts recomputes edge BPR times and generalized costs from the
// current flows, then every path's cost and each OD's minimum, and the
// path-size factors when the RUM needs them. Overlap is cost-weighted, so
// PS must track every cost change, not just topology changes.
func (d *Driver) refreshCosts() {
	d.net.UpdateEdgeCosts(d.rum)
	d.net.UpdatePathCosts()
	if d.rum.Kind() == rum.PSL {
		gamma := d.rum.PathSizeExponent()
		for _, od := range d.net.AllODs() {
			choiceset.UpdatePathSizeFactors(od, gamma)
		}
	}
}

// runInner solves the restricted stochastic loading fixed point on the
// frozen choice sets with the method of successive averages, step size
// 1/(m+1) at iteration m. It returns the number of iterations used.
//
// Per iteration: refresh costs, compute each path's choice probability
// from the RUM enumerators, set auxiliary flows demand*p, move flows by
// the MSA convex combination, reload edges, and stop once the gap falls
// below epsilon or InnerMax is reached.
func (d *Driver) runInner(ctx context.Context) (int, error) {
	for m := 1; m <= d.opts.InnerMax; m++ {
		if err := ctx.Err(); err != nil {
			return m, err
		}

		stepSize := 1.0 / float64(m+1)
		d.refreshCosts()

		for _, od := range d.net.AllODs() {
			if err := d.redistribute(od, stepSize); err != nil {
				return m, err
			}
		}

		d.net.LoadNetwork()
		d.refreshCosts()

		if gap := d.relGapUsed(); gap < d.opts.Epsilon {
			return m, nil
		}
	}
	return d.opts.InnerMax, nil
}

// redistribute performs one MSA step on a single OD: probabilities from
// the enumerators, auxiliary flow demand*p, then
// flow <- (1-step)*flow + step*auxFlow.
func (d *Driver) redistribute(od *graph.OD, stepSize float64) error {
	paths := od.RestrictedChoiceSet
	if len(paths) == 0 {
		return nil
	}

	var total float64
	for _, p := range paths {
		e := d.innerEnumerator(p, od.MinimumCost)
		p.P = e // reused as the enumerator until normalized below
		total += e
	}

	if total <= 0 {
		// Every enumerator is zero (TMNL/local cut removed the whole
		// set): fall back to a uniform split so demand stays assigned.
		uniform := 1.0 / float64(len(paths))
		for _, p := range paths {
			p.P = uniform
		}
	} else {
		for _, p := range paths {
			p.P /= total
		}
	}

	for _, p := range paths {
		p.AuxFlow = od.Demand * p.P
		if err := p.SetFlow((1-stepSize)*p.Flow + stepSize*p.AuxFlow); err != nil {
			return err
		}
	}
	return nil
}

// innerEnumerator is the RUM enumerator with the optional tighter
// inner-loop admission cut applied on top: a path above the local
// reference cost gets zero probability and zero auxiliary flow, so any
// flow it carries decays by (1-step) each iteration.
func (d *Driver) innerEnumerator(p *graph.Path, minimumCost float64) float64 {
	if d.thresholds.Local != nil && p.GenCost > d.thresholds.Local.Threshold(minimumCost) {
		return 0
	}
	return d.rum.Enumerator(p, minimumCost)
}
