package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madspDTU/rsuet/internal/graph"
)

func buildLine(t *testing.T) *graph.Network {
	t.Helper()
	net := graph.NewNetwork("line")
	net.AddNode(&graph.Node{ID: 1})
	net.AddNode(&graph.Node{ID: 2})
	net.AddNode(&graph.Node{ID: 3})
	net.AddEdge(&graph.Edge{Tail: 1, Head: 2, GenCost: 1})
	net.AddEdge(&graph.Edge{Tail: 2, Head: 3, GenCost: 2})
	net.AddEdge(&graph.Edge{Tail: 1, Head: 3, GenCost: 5})
	return net
}

func TestShortestPathsFrom_PicksCheaperTwoHop(t *testing.T) {
	net := buildLine(t)
	tree, err := ShortestPathsFrom(net, 1, []int64{2, 3})
	require.NoError(t, err)
	defer tree.Release()

	assert.InDelta(t, 0.0, tree.Dist(1), 1e-9)
	assert.InDelta(t, 1.0, tree.Dist(2), 1e-9)
	assert.InDelta(t, 3.0, tree.Dist(3), 1e-9)

	edges, ok := tree.Path(net, 3)
	require.True(t, ok)
	require.Len(t, edges, 2)
	assert.Equal(t, int64(1), edges[0].Tail)
	assert.Equal(t, int64(2), edges[0].Head)
	assert.Equal(t, int64(2), edges[1].Tail)
	assert.Equal(t, int64(3), edges[1].Head)
}

func TestShortestPathsFrom_Unreachable(t *testing.T) {
	net := graph.NewNetwork("disconnected")
	net.AddNode(&graph.Node{ID: 1})
	net.AddNode(&graph.Node{ID: 2})

	tree, err := ShortestPathsFrom(net, 1, []int64{2})
	require.NoError(t, err)
	defer tree.Release()

	assert.True(t, tree.Dist(2) >= graph.Infinity)
	_, ok := tree.Path(net, 2)
	assert.False(t, ok)
}

func TestShortestPathsFrom_NegativeCostIsNumericFailure(t *testing.T) {
	net := graph.NewNetwork("bad")
	net.AddNode(&graph.Node{ID: 1})
	net.AddNode(&graph.Node{ID: 2})
	net.AddEdge(&graph.Edge{Tail: 1, Head: 2, GenCost: -1})

	_, err := ShortestPathsFrom(net, 1, []int64{2})
	require.Error(t, err)
}

func TestIndexedHeap_OrdersByDistance(t *testing.T) {
	h := NewIndexedHeap(4)
	h.Insert(1, 5)
	h.Insert(2, 3)
	h.Insert(3, 8)
	h.DecreaseKey(3, 1)

	node, dist := h.ExtractMin()
	assert.Equal(t, int64(3), node)
	assert.Equal(t, 1.0, dist)

	node, dist = h.ExtractMin()
	assert.Equal(t, int64(2), node)
	assert.Equal(t, 3.0, dist)

	node, _ = h.ExtractMin()
	assert.Equal(t, int64(1), node)
	assert.Equal(t, 0, h.Len())
}
