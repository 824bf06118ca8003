// Package rum implements the Random Utility Model variants the RSUET
// driver uses to turn path costs into choice probabilities: plain MNL,
// truncated MNL (TMNL), and Path-Size Logit (PSL). Variants are modelled
// as a closed tagged union with an explicit method table rather than an
// interface hierarchy, since every variant is known at build time.
package rum

import (
	"math"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/pkg/apperror"
)

// Kind identifies a RUM variant.
type Kind int

const (
	MNL Kind = iota
	TMNL
	PSL
)

func (k Kind) String() string {
	switch k {
	case MNL:
		return "mnl"
	case TMNL:
		return "tmnl"
	case PSL:
		return "psl"
	default:
		return "unknown"
	}
}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "mnl":
		return MNL, nil
	case "tmnl":
		return TMNL, nil
	case "psl":
		return PSL, nil
	default:
		return 0, apperror.New(apperror.CodeInvalidTheta, "unknown rum kind: "+s)
	}
}

// RUM holds one variant's parameters. Scale Theta and the beta weights are
// shared by every variant; pathSizeExponent only matters for PSL and omega
// only for TMNL (and PSL-TMNL compositions).
type RUM struct {
	kind             Kind
	theta            float64
	betaTime         float64
	betaLength       float64
	pathSizeExponent float64

	// omega is the upper reference-cost function TMNL truncates against.
	// Required when kind == TMNL; also applied by PSL when set; ignored by
	// MNL.
	omega ReferenceCost
}

// New validates and constructs a RUM. Negative theta or beta weights are
// rejected: BPR-derived costs and the Dijkstra relaxation both assume
// non-negative generalized cost.
func New(kind Kind, theta, betaTime, betaLength, pathSizeExponent float64, omega ReferenceCost) (*RUM, error) {
	if theta <= 0 {
		return nil, apperror.New(apperror.CodeInvalidTheta, "theta must be > 0")
	}
	if betaTime < 0 || betaLength < 0 {
		return nil, apperror.New(apperror.CodeInvalidBeta, "betaTime and betaLength must be >= 0")
	}
	if pathSizeExponent < 0 {
		return nil, apperror.New(apperror.CodeInvalidBeta, "pathSizeExponent must be >= 0")
	}
	if kind == TMNL && omega == nil {
		return nil, apperror.New(apperror.CodeInvalidCostRatio, "TMNL requires an omega reference-cost function")
	}
	return &RUM{
		kind:             kind,
		theta:            theta,
		betaTime:         betaTime,
		betaLength:       betaLength,
		pathSizeExponent: pathSizeExponent,
		omega:            omega,
	}, nil
}

// Kind reports the variant.
func (r *RUM) Kind() Kind { return r.kind }

// BetaTime implements graph.CostWeights.
func (r *RUM) BetaTime() float64 { return r.betaTime }

// BetaLength implements graph.CostWeights.
func (r *RUM) BetaLength() float64 { return r.betaLength }

// Theta returns the RUM's scale parameter.
func (r *RUM) Theta() float64 { return r.theta }

// PathSizeExponent returns gamma, the overlap-factor exponent PSL's
// path-size computation needs.
func (r *RUM) PathSizeExponent() float64 { return r.pathSizeExponent }

// DeterministicUtility is -(betaTime*time + betaLength*length) along the
// path, i.e. -p.GenCost once UpdateEdgeCosts/RefreshGenCost have run with
// this RUM's weights.
func (r *RUM) DeterministicUtility(p *graph.Path) float64 {
	return -p.GenCost
}

// Enumerator computes the non-negative term each variant contributes to
// the choice-probability denominator:
//
//	MNL:  exp(-theta * genCost)
//	TMNL: exp(-theta * genCost) if genCost <= omega(minCost), else 0
//	PSL:  PS * exp(-theta * genCost)
//
// minimumCost is the OD's current minimum path cost, used to evaluate omega.
func (r *RUM) Enumerator(p *graph.Path, minimumCost float64) float64 {
	truncated := r.omega != nil && p.GenCost > r.omega.Threshold(minimumCost)

	switch r.kind {
	case TMNL:
		if truncated {
			return 0
		}
		return math.Exp(-r.theta * p.GenCost)
	case PSL:
		// PSL-TMNL composition: an omega function on a PSL RUM truncates
		// exactly like TMNL, on top of the path-size correction.
		if truncated {
			return 0
		}
		return p.PS * math.Exp(-r.theta*p.GenCost)
	default:
		return math.Exp(-r.theta * p.GenCost)
	}
}
