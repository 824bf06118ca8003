package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedWeights struct{ time, length float64 }

func (w fixedWeights) BetaTime() float64   { return w.time }
func (w fixedWeights) BetaLength() float64 { return w.length }

func buildY(t *testing.T) (*Network, *OD, *OD) {
	t.Helper()
	net := NewNetwork("y")
	for i := int64(1); i <= 4; i++ {
		net.AddNode(&Node{ID: i})
	}
	// 1 -> 2 shared trunk, then 2 -> 3 and 2 -> 4.
	net.AddEdge(&Edge{Tail: 1, Head: 2, Capacity: 100, FreeFlowTime: 10, Length: 1, B: 0.15, Power: 4})
	net.AddEdge(&Edge{Tail: 2, Head: 3, Capacity: 100, FreeFlowTime: 5, Length: 1, B: 0.15, Power: 4})
	net.AddEdge(&Edge{Tail: 2, Head: 4, Capacity: 100, FreeFlowTime: 5, Length: 1, B: 0.15, Power: 4})

	od13 := &OD{O: 1, D: 3, Demand: 30}
	od14 := &OD{O: 1, D: 4, Demand: 20}
	net.AddOD(od13)
	net.AddOD(od14)

	trunk, _ := net.Edge(1, 2)
	left, _ := net.Edge(2, 3)
	right, _ := net.Edge(2, 4)

	p13 := NewPath(od13.Key(), []*Edge{trunk, left})
	p13.Flow = 30
	od13.RestrictedChoiceSet = []*Path{p13}

	p14 := NewPath(od14.Key(), []*Edge{trunk, right})
	p14.Flow = 20
	od14.RestrictedChoiceSet = []*Path{p14}

	return net, od13, od14
}

func TestLoadNetwork_SumsPathFlowsPerEdge(t *testing.T) {
	net, _, _ := buildY(t)
	net.LoadNetwork()

	trunk, _ := net.Edge(1, 2)
	left, _ := net.Edge(2, 3)
	right, _ := net.Edge(2, 4)
	assert.InDelta(t, 50, trunk.Flow, 1e-9, "trunk carries both ODs")
	assert.InDelta(t, 30, left.Flow, 1e-9)
	assert.InDelta(t, 20, right.Flow, 1e-9)

	// Reloading rebuilds from scratch rather than accumulating.
	net.LoadNetwork()
	assert.InDelta(t, 50, trunk.Flow, 1e-9)
}

func TestUpdatePathCosts_RefreshesMinimumCost(t *testing.T) {
	net, od13, _ := buildY(t)
	net.LoadNetwork()
	net.UpdateEdgeCosts(fixedWeights{time: 1})
	net.UpdatePathCosts()

	p := od13.RestrictedChoiceSet[0]
	var want float64
	for _, e := range p.Edges {
		want += e.GenCost
	}
	assert.InDelta(t, want, p.GenCost, 1e-9)
	assert.InDelta(t, p.GenCost, od13.MinimumCost, 1e-9)
}

func TestAddPath_RejectsDuplicateEdgeSequence(t *testing.T) {
	net, od13, _ := buildY(t)
	trunk, _ := net.Edge(1, 2)
	left, _ := net.Edge(2, 3)

	dup := NewPath(od13.Key(), []*Edge{trunk, left})
	assert.False(t, od13.AddPath(dup))
	assert.Len(t, od13.RestrictedChoiceSet, 1)
}

func TestPathEqual_EquivalenceRelation(t *testing.T) {
	net, od13, _ := buildY(t)
	trunk, _ := net.Edge(1, 2)
	left, _ := net.Edge(2, 3)
	right, _ := net.Edge(2, 4)

	a := NewPath(od13.Key(), []*Edge{trunk, left})
	b := NewPath(od13.Key(), []*Edge{trunk, left})
	c := NewPath(od13.Key(), []*Edge{trunk, left})
	other := NewPath(od13.Key(), []*Edge{trunk, right})

	assert.True(t, a.Equal(a), "reflexive")
	assert.True(t, a.Equal(b) && b.Equal(a), "symmetric")
	assert.True(t, a.Equal(b) && b.Equal(c) && a.Equal(c), "transitive")
	assert.False(t, a.Equal(other))

	net.UpdateEdgeCosts(fixedWeights{time: 1})
	a.RefreshGenCost()
	b.RefreshGenCost()
	assert.Equal(t, a.GenCost, b.GenCost, "equal paths share cost after a refresh")
}

func TestSetFlow_RejectsNonFinite(t *testing.T) {
	p := &Path{}
	require.NoError(t, p.SetFlow(10))
	assert.Equal(t, 10.0, p.Flow)

	assert.Error(t, p.SetFlow(math.NaN()))
	assert.Error(t, p.SetFlow(math.Inf(1)))
	assert.Equal(t, 10.0, p.Flow, "rejected values leave flow untouched")
}

func TestOriginGroupedIteration_IsDeterministic(t *testing.T) {
	net := NewNetwork("order")
	for i := int64(1); i <= 5; i++ {
		net.AddNode(&Node{ID: i})
	}
	// Added out of order on purpose.
	net.AddOD(&OD{O: 3, D: 5, Demand: 1})
	net.AddOD(&OD{O: 1, D: 4, Demand: 1})
	net.AddOD(&OD{O: 1, D: 2, Demand: 1})
	net.AddOD(&OD{O: 3, D: 4, Demand: 1})

	assert.Equal(t, []int64{1, 3}, net.Origins())
	var got []ODKey
	for _, od := range net.AllODs() {
		got = append(got, od.Key())
	}
	assert.Equal(t, []ODKey{{1, 2}, {1, 4}, {3, 4}, {3, 5}}, got)
}
