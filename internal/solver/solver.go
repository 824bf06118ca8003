// Package solver implements the RSUET driver: the outer column-generation
// and threshold-pruning loop, and the inner MSA stochastic-loading fixed
// point it runs on each frozen restricted choice set.
//
// # Determinism
//
// The driver visits ODs in origin-grouped order (see graph.Network.AllODs)
// and folds parallel Dijkstra results back in that same order, so a run
// produces identical flows regardless of the Parallel option.
//
// # Thread Safety
//
// A Driver is not safe for concurrent use. One Run mutates the network's
// flows and costs in place; callers wanting concurrent solves must give
// each goroutine its own network.
package solver

import (
	"context"
	"log/slog"
	"time"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/internal/rum"
	"github.com/madspDTU/rsuet/pkg/apperror"
)

// State is the outer driver's position in the RSUET state machine.
type State int

const (
	StateInit State = iota
	StateColGen
	StatePrune
	StateInner
	StateCheck
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateColGen:
		return "COL_GEN"
	case StatePrune:
		return "PRUNE"
	case StateInner:
		return "INNER"
	case StateCheck:
		return "CHECK"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the terminal status of a run.
type Outcome string

const (
	OutcomeConverged Outcome = "converged"
	// OutcomeNonConvergence means the outer iteration cap was reached with
	// relGapUsed still above epsilon. Flows and probabilities are returned
	// anyway; this is a warning, not a failure.
	OutcomeNonConvergence Outcome = "non_convergence"
)

// Thresholds bundles the driver's reference-cost functions. Phi is the
// lower (inner) reference used for threshold pruning, Omega the upper
// (outer) reference used in the convergence gap. Local, when non-nil, is a
// tighter inner-loop admission cut applied to the stochastic-loading
// denominator; nil means the inner master problem is unrestricted.
type Thresholds struct {
	Phi   rum.ReferenceCost
	Omega rum.ReferenceCost
	Local rum.ReferenceCost
}

// Options configures the driver's numerical behavior. Zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// Epsilon is the convergence tolerance for both the inner MSA loop and
	// the outer relative used gap.
	Epsilon float64

	// OuterMax caps outer iterations. Breach is a NonConvergence outcome.
	OuterMax int

	// InnerMax caps MSA iterations per outer iteration.
	InnerMax int

	// Parallel fans Dijkstra runs over distinct origins out across
	// goroutines. Results are folded back in origin order, so flows are
	// identical either way.
	Parallel bool

	// MaxParallel limits concurrent Dijkstra goroutines when Parallel is
	// set. Zero or negative means one goroutine per logical CPU.
	MaxParallel int
}

// DefaultOptions returns the standard solver settings: epsilon 1e-4, at
// most 100 outer and 1000 inner iterations, sequential execution.
func DefaultOptions() Options {
	return Options{
		Epsilon:  1e-4,
		OuterMax: 100,
		InnerMax: 1000,
	}
}

// Result is the outcome of one Run. The converged (or last) flows and
// probabilities live on the network the driver was constructed with.
type Result struct {
	Outcome         Outcome
	OuterIterations int
	RelGapUsed      float64

	// Record is the append-only convergence history, one row per outer
	// iteration.
	Record []ConvergenceRow

	// Warning is non-nil on OutcomeNonConvergence.
	Warning error

	Duration time.Duration
}

// LastRow returns the final convergence record, or a zero row when the
// record is empty.
func (r *Result) LastRow() ConvergenceRow {
	if len(r.Record) == 0 {
		return ConvergenceRow{}
	}
	return r.Record[len(r.Record)-1]
}

// Progress receives convergence callbacks as the driver runs. The console
// reporter in internal/report implements it; the driver itself never
// imports report, keeping the core free of presentation concerns.
type Progress interface {
	OuterIteration(row ConvergenceRow)
	Done(result *Result)
}

type noopProgress struct{}

func (noopProgress) OuterIteration(ConvergenceRow) {}
func (noopProgress) Done(*Result)                  {}

// Driver runs the RSUET fixed-point computation on one network.
type Driver struct {
	net        *graph.Network
	rum        *rum.RUM
	thresholds Thresholds
	opts       Options

	progress Progress
	log      *slog.Logger
}

// New validates inputs and constructs a Driver. Phi and Omega are
// required; a nil RUM, non-positive epsilon or iteration cap, or missing
// reference-cost function is InvalidInput, and a nil network is an
// internal error.
func New(net *graph.Network, r *rum.RUM, thresholds Thresholds, opts Options) (*Driver, error) {
	if net == nil {
		return nil, apperror.ErrNilNetwork
	}
	if r == nil {
		return nil, apperror.New(apperror.CodeInvalidTheta, "rum is nil")
	}
	if thresholds.Phi == nil || thresholds.Omega == nil {
		return nil, apperror.New(apperror.CodeInvalidCostRatio, "phi and omega reference-cost functions are required")
	}
	if opts.Epsilon <= 0 {
		return nil, apperror.New(apperror.CodeInvalidEpsilon, "epsilon must be > 0")
	}
	if opts.OuterMax <= 0 || opts.InnerMax <= 0 {
		return nil, apperror.New(apperror.CodeInvalidEpsilon, "outer and inner iteration caps must be > 0")
	}
	return &Driver{
		net:        net,
		rum:        r,
		thresholds: thresholds,
		opts:       opts,
		progress:   noopProgress{},
		log:        slog.Default().With("component", "solver"),
	}, nil
}

// WithProgress sets the progress callback and returns the driver for chaining.
func (d *Driver) WithProgress(p Progress) *Driver {
	if p != nil {
		d.progress = p
	}
	return d
}

// WithLogger sets the driver's logger and returns it for chaining.
func (d *Driver) WithLogger(log *slog.Logger) *Driver {
	if log != nil {
		d.log = log.With("component", "solver")
	}
	return d
}

// Run executes the state machine INIT -> COL_GEN -> PRUNE -> INNER ->
// CHECK, looping CHECK -> COL_GEN until relGapUsed falls below epsilon or
// the outer cap is hit. Context cancellation is honored between states.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	state := StateInit
	outer := 0
	innerIters := 0
	added, pruned := 0, 0

	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case StateInit:
			if err := d.initialize(ctx); err != nil {
				return nil, err
			}
			state = StateColGen

		case StateColGen:
			outer++
			var err error
			added, err = d.columnGeneration(ctx, false)
			if err != nil {
				return nil, err
			}
			d.log.Debug("column generation", "outer", outer, "paths_added", added)
			state = StatePrune

		case StatePrune:
			var err error
			pruned, err = d.pruneChoiceSets()
			if err != nil {
				return nil, err
			}
			if pruned > 0 {
				d.log.Debug("threshold pruning", "outer", outer, "paths_removed", pruned)
				// Pruning moved flow between paths; reload before the
				// inner loop sees stale edge flows.
				d.net.LoadNetwork()
				d.refreshCosts()
			}
			state = StateInner

		case StateInner:
			var err error
			innerIters, err = d.runInner(ctx)
			if err != nil {
				return nil, err
			}
			state = StateCheck

		case StateCheck:
			gap := d.relGapUsed()
			row := d.recordRow(outer, innerIters, added, pruned, gap)
			res.Record = append(res.Record, row)
			res.RelGapUsed = gap
			res.OuterIterations = outer
			d.progress.OuterIteration(row)
			d.log.Info("outer iteration",
				"outer", outer, "inner", innerIters, "rel_gap_used", gap,
				"max_choice_set", row.MaxChoiceSetSize, "avg_choice_set", row.AvgChoiceSetSize)

			switch {
			case gap < d.opts.Epsilon:
				res.Outcome = OutcomeConverged
				state = StateDone
			case outer >= d.opts.OuterMax:
				res.Outcome = OutcomeNonConvergence
				res.Warning = apperror.NewWarning(apperror.CodeNonConvergence,
					"outer iteration cap reached before convergence").
					WithDetails("outer", outer).WithDetails("rel_gap_used", gap)
				state = StateDone
			default:
				state = StateColGen
			}
		}
	}

	res.Duration = time.Since(start)
	d.progress.Done(res)
	return res, nil
}

// initialize performs outer iteration 0: free-flow edge costs, an
// all-or-nothing assignment of each OD's full demand onto its current
// shortest path, then a load and cost refresh.
func (d *Driver) initialize(ctx context.Context) error {
	for _, e := range d.net.EdgesList {
		e.Flow = 0
	}
	d.net.UpdateEdgeCosts(d.rum)

	if _, err := d.columnGeneration(ctx, true); err != nil {
		return err
	}

	d.net.LoadNetwork()
	d.refreshCosts()
	return nil
}
