package rum

import "github.com/madspDTU/rsuet/pkg/apperror"

// ReferenceCostKind identifies a reference-cost function variant. Like the
// RUM kinds, the set is closed and dispatches through a tagged union.
type ReferenceCostKind int

const (
	// Multiplicative (TauMin): threshold = k * minimumCost.
	Multiplicative ReferenceCostKind = iota
	// AdditiveDelta (MinPlusDelta): threshold = minimumCost + delta.
	AdditiveDelta
)

// ReferenceCost computes phi or omega, the lower/upper reference-cost
// functions used for threshold enforcement and outer convergence. Both
// phi and omega are instances of the same tagged variant; the driver
// holds one of each.
type ReferenceCost interface {
	Threshold(minimumCost float64) float64
	Kind() ReferenceCostKind
}

// multiplicative implements phi(od) = k * od.MinimumCost, the default
// threshold shape (k=1.3).
type multiplicative struct{ k float64 }

func (m multiplicative) Threshold(minimumCost float64) float64 { return m.k * minimumCost }
func (m multiplicative) Kind() ReferenceCostKind               { return Multiplicative }

// additiveDelta implements phi(od) = od.MinimumCost + delta.
type additiveDelta struct{ delta float64 }

func (a additiveDelta) Threshold(minimumCost float64) float64 { return minimumCost + a.delta }
func (a additiveDelta) Kind() ReferenceCostKind               { return AdditiveDelta }

// NewMultiplicative builds a TauMin reference-cost function. k must be
// >= 1: a ratio below one would put the threshold under the minimum cost
// and prune every path including the cheapest.
func NewMultiplicative(k float64) (ReferenceCost, error) {
	if k < 1 {
		return nil, apperror.New(apperror.CodeInvalidCostRatio, "reference-cost multiplier must be >= 1")
	}
	return multiplicative{k: k}, nil
}

// NewAdditiveDelta builds a MinPlusDelta reference-cost function. delta
// must be >= 0 so the threshold never falls below the minimum cost itself.
func NewAdditiveDelta(delta float64) (ReferenceCost, error) {
	if delta < 0 {
		return nil, apperror.New(apperror.CodeInvalidCostRatio, "reference-cost delta must be >= 0")
	}
	return additiveDelta{delta: delta}, nil
}
