package algorithms

import (
	"math"
	"sync"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/pkg/apperror"
)

// heapPool reuses indexed heaps, and their O(N) position arrays, across
// ShortestPathsFrom calls. A heap is always reset before it goes back.
var heapPool sync.Pool

// ShortestPathTree is the result of one ShortestPathsFrom call: every
// destination's distance and predecessor, valid only until the scratch is
// reused for the next origin.
type ShortestPathTree struct {
	origin  int64
	dist    []float64
	prev    []int64
	scratch *graph.DijkstraScratch
}

// Dist returns the shortest-path cost from the tree's origin to node, or
// graph.Infinity if unreachable.
func (t *ShortestPathTree) Dist(node int64) float64 {
	return t.dist[node-1]
}

// Release returns the tree's scratch arrays to the pool. Call once the
// caller is done reading distances/paths for this origin.
func (t *ShortestPathTree) Release() {
	t.scratch.Release()
}

// ShortestPathsFrom runs early-terminating Dijkstra from origin over net,
// stopping as soon as every node in destinations has been settled: on an
// empty pending set, not an empty heap.
// Edge cost is GenCost, which BPR guarantees is non-negative; a negative
// GenCost observed during relaxation is a NumericFailure. There is no
// negative-weight fallback algorithm because the domain never produces
// one.
func ShortestPathsFrom(net *graph.Network, origin int64, destinations []int64) (*ShortestPathTree, error) {
	n := net.NodeCount()
	pool := graph.GetPool()
	scratch := graph.AcquireDijkstraScratch(pool, n)

	scratch.Dist[origin-1] = 0
	scratch.Visited[origin-1] = false // settled below on first pop

	pending := make(map[int64]struct{}, len(destinations))
	for _, d := range destinations {
		if d != origin {
			pending[d] = struct{}{}
		}
	}

	heap, _ := heapPool.Get().(*IndexedHeap)
	if heap == nil || len(heap.positionOf) < n {
		heap = NewIndexedHeap(n)
	}
	defer func() {
		heap.Reset()
		heapPool.Put(heap)
	}()
	heap.Insert(origin, 0)

	for heap.Len() > 0 && len(pending) > 0 {
		u, du := heap.ExtractMin()
		if scratch.Visited[u-1] {
			continue
		}
		scratch.Visited[u-1] = true
		delete(pending, u)

		for _, v := range net.Neighbours(u) {
			if scratch.Visited[v-1] {
				continue
			}
			edge, ok := net.Edge(u, v)
			if !ok {
				continue
			}
			if edge.GenCost < -graph.Epsilon {
				scratch.Release()
				return nil, apperror.New(apperror.CodeNumericFailure,
					"negative generalized cost during Dijkstra relaxation").
					WithDetails("tail", u).WithDetails("head", v).WithDetails("genCost", edge.GenCost)
			}
			alt := du + math.Max(edge.GenCost, 0)
			if alt < scratch.Dist[v-1] {
				scratch.Dist[v-1] = alt
				scratch.Prev[v-1] = u
				if heap.Contains(v) {
					heap.DecreaseKey(v, alt)
				} else {
					heap.Insert(v, alt)
				}
			}
		}
	}

	return &ShortestPathTree{origin: origin, dist: scratch.Dist, prev: scratch.Prev, scratch: scratch}, nil
}

// Path reconstructs the edge list from the tree's origin to dest by walking
// Prev back to the origin and inverting. Returns (nil, false) if dest is
// unreachable.
func (t *ShortestPathTree) Path(net *graph.Network, dest int64) ([]*graph.Edge, bool) {
	if t.dist[dest-1] >= graph.Infinity {
		return nil, false
	}
	if dest == t.origin {
		return nil, true
	}

	var nodes []int64
	cur := dest
	for cur != t.origin {
		nodes = append(nodes, cur)
		prev := t.prev[cur-1]
		if prev == 0 {
			return nil, false
		}
		cur = prev
	}
	nodes = append(nodes, t.origin)

	edges := make([]*graph.Edge, 0, len(nodes)-1)
	for i := len(nodes) - 1; i > 0; i-- {
		e, ok := net.Edge(nodes[i], nodes[i-1])
		if !ok {
			return nil, false
		}
		edges = append(edges, e)
	}
	return edges, true
}
