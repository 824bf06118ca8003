package graph

import (
	"math"

	"github.com/madspDTU/rsuet/pkg/apperror"
)

// Path is an ordered, acyclic tail-to-head chain of edges belonging to one
// OD. It references its OD by key rather than by pointer: ownership flows
// network -> OD -> paths, and paths never own the OD back.
type Path struct {
	OD ODKey

	Edges []*Edge

	GenCost float64
	Length  float64

	Flow    float64
	AuxFlow float64

	P  float64 // choice probability
	PS float64 // path-size (overlap) factor, in (0,1]

	TransformedCost float64

	MarkedForRemoval bool
}

// NewPath builds a Path from an edge chain and computes its cached scalars.
func NewPath(od ODKey, edges []*Edge) *Path {
	p := &Path{OD: od, Edges: append([]*Edge(nil), edges...), PS: 1}
	p.RefreshLength()
	return p
}

// RefreshLength recomputes Length as the sum of edge lengths.
func (p *Path) RefreshLength() {
	var total float64
	for _, e := range p.Edges {
		total += e.Length
	}
	p.Length = total
}

// RefreshGenCost recomputes GenCost as the sum of edge generalized costs.
func (p *Path) RefreshGenCost() {
	var total float64
	for _, e := range p.Edges {
		total += e.GenCost
	}
	p.GenCost = total
}

// SetFlow assigns the path's flow. NaN or Inf is a NumericFailure: the
// setter rejects it instead of letting a poisoned value propagate through
// LoadNetwork into every edge cost.
func (p *Path) SetFlow(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperror.NewCritical(apperror.CodeNumericFailure, "non-finite path flow").
			WithDetails("flow", v).WithDetails("genCost", p.GenCost)
	}
	p.Flow = v
	return nil
}

// Equal reports whether p and other traverse the same edge sequence.
func (p *Path) Equal(other *Path) bool {
	if len(p.Edges) != len(other.Edges) {
		return false
	}
	for i, e := range p.Edges {
		if e != other.Edges[i] {
			return false
		}
	}
	return true
}

// NodeSequence materializes the tail-to-head node id sequence of the path,
// used for CSV/DOT output (space-separated node ids).
func (p *Path) NodeSequence() []int64 {
	if len(p.Edges) == 0 {
		return nil
	}
	seq := make([]int64, 0, len(p.Edges)+1)
	seq = append(seq, p.Edges[0].Tail)
	for _, e := range p.Edges {
		seq = append(seq, e.Head)
	}
	return seq
}

// RefreshTransformedCost sets TransformedCost = flow/enumerator when flow is
// positive, and 0 when flow is zero (per the zero-flow convention).
func (p *Path) RefreshTransformedCost(enumerator float64) {
	if IsZero(p.Flow) {
		p.TransformedCost = 0
		return
	}
	if IsZero(enumerator) {
		p.TransformedCost = 0
		return
	}
	p.TransformedCost = p.Flow / enumerator
}
