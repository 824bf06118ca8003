package choiceset

import "github.com/madspDTU/rsuet/internal/graph"

// universalFrame is one stack frame of the explicit-stack DFS that
// GenerateUniversalChoiceSet uses in place of naive recursion: deep
// networks would otherwise risk stack growth and a fresh visited vector
// per recursion level. A single visited bit-set is flipped on entry and
// restored on backtrack instead.
type universalFrame struct {
	node int64
	idx  int     // next position into net.Neighbours(node) to try
	cost float64 // running GenCost to reach node
}

// GenerateUniversalChoiceSet depth-first-enumerates every acyclic O->D
// path whose running cost never exceeds 2*shortestCost. The paths are
// returned and also stored in od.R.
// Intended only as a small-network diagnostic: it is not called from the
// main solver loop, and its complexity is non-polynomial in general graphs.
func GenerateUniversalChoiceSet(net *graph.Network, od *graph.OD, shortestCost float64) []*graph.Path {
	limit := 2 * shortestCost
	origin, dest := od.O, od.D

	visited := make([]bool, net.NodeCount()+1)
	visited[origin] = true

	chain := make([]*graph.Edge, 0, 16)
	stack := []universalFrame{{node: origin, idx: 0, cost: 0}}

	var paths []*graph.Path

	for len(stack) > 0 {
		top := len(stack) - 1
		node := stack[top].node
		neighbours := net.Neighbours(node)

		if stack[top].idx >= len(neighbours) {
			stack = stack[:top]
			visited[node] = false
			if len(chain) > 0 {
				chain = chain[:len(chain)-1]
			}
			continue
		}

		v := neighbours[stack[top].idx]
		stack[top].idx++

		edge, ok := net.Edge(node, v)
		if !ok {
			continue
		}
		newCost := stack[top].cost + edge.GenCost
		if newCost > limit {
			continue
		}

		if v == dest {
			full := make([]*graph.Edge, len(chain)+1)
			copy(full, chain)
			full[len(chain)] = edge
			paths = append(paths, graph.NewPath(od.Key(), full))
			continue
		}

		if visited[v] {
			continue
		}
		visited[v] = true
		chain = append(chain, edge)
		stack = append(stack, universalFrame{node: v, idx: 0, cost: newCost})
	}

	od.R = paths
	return paths
}
