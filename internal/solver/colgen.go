package solver

import (
	"context"
	"runtime"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/madspDTU/rsuet/internal/algorithms"
	"github.com/madspDTU/rsuet/internal/choiceset"
	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/pkg/apperror"
)

// columnGeneration runs Dijkstra once per origin with demand, inserting
// each OD's current shortest path into its restricted choice set when not
// already present. In the initial pass (outer iteration 0) the new path
// additionally receives the OD's full demand as an all-or-nothing load.
//
// Every OD whose destination is unreachable is collected; one or more
// positive-demand ODs without a path is a DisconnectedDemand error
// aggregating all offenders, returned after the full pass so the log shows
// every disconnected pair at once rather than just the first.
func (d *Driver) columnGeneration(ctx context.Context, initial bool) (int, error) {
	origins := d.net.Origins()
	results := make([][][]*graph.Edge, len(origins))

	if d.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		limit := d.opts.MaxParallel
		if limit <= 0 {
			limit = runtime.NumCPU()
		}
		g.SetLimit(limit)
		for i, o := range origins {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				paths, err := d.pathsFromOrigin(o)
				if err != nil {
					return err
				}
				results[i] = paths
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, err
		}
	} else {
		for i, o := range origins {
			paths, err := d.pathsFromOrigin(o)
			if err != nil {
				return 0, err
			}
			results[i] = paths
		}
	}

	// Fold in deterministic origin-then-destination order regardless of
	// goroutine completion order.
	added := 0
	var disconnected error
	for i, o := range origins {
		for j, od := range d.net.ODsFrom(o) {
			edges := results[i][j]
			if len(edges) == 0 {
				disconnected = multierr.Append(disconnected,
					apperror.New(apperror.CodeDisconnectedDemand, "no path for OD with positive demand").
						WithDetails("origin", od.O).WithDetails("destination", od.D).
						WithDetails("demand", od.Demand))
				continue
			}
			p := graph.NewPath(od.Key(), edges)
			p.RefreshGenCost()
			od.PathWasAddedDuringColumnGeneration = false
			if choiceset.AddPath(od, p) {
				od.PathWasAddedDuringColumnGeneration = true
				added++
				if initial {
					if err := p.SetFlow(od.Demand); err != nil {
						return added, err
					}
				}
			}
		}
	}
	if disconnected != nil {
		return added, disconnected
	}

	d.net.UpdatePathCosts()
	return added, nil
}

// pathsFromOrigin runs one early-terminating Dijkstra and reconstructs the
// shortest path for every destination with demand from origin. The result
// is aligned with Network.ODsFrom(origin); a nil entry means unreachable.
func (d *Driver) pathsFromOrigin(origin int64) ([][]*graph.Edge, error) {
	ods := d.net.ODsFrom(origin)
	destinations := make([]int64, len(ods))
	for i, od := range ods {
		destinations[i] = od.D
	}

	tree, err := algorithms.ShortestPathsFrom(d.net, origin, destinations)
	if err != nil {
		return nil, err
	}
	defer tree.Release()

	paths := make([][]*graph.Edge, len(ods))
	for i, od := range ods {
		if edges, ok := tree.Path(d.net, od.D); ok {
			paths[i] = edges
		}
	}
	return paths, nil
}

// pruneChoiceSets removes every path whose generalized cost exceeds
// phi(od.MinimumCost), redistributing its flow across the kept paths via
// the RUM's probabilities. Returns the number of paths removed across all
// ODs.
func (d *Driver) pruneChoiceSets() (int, error) {
	pruned := 0
	for _, od := range d.net.AllODs() {
		threshold := d.thresholds.Phi.Threshold(od.MinimumCost)
		removed, err := choiceset.PruneAboveThreshold(od, threshold, d.rum)
		if err != nil {
			return pruned, err
		}
		pruned += removed
	}
	return pruned, nil
}
