package graph

import (
	"fmt"
	"sort"
)

// CostWeights supplies the two coefficients Network.UpdateEdgeCosts needs to
// recompute generalized cost. internal/rum's RUM type implements this;
// graph does not import rum to avoid a dependency cycle (rum operates on
// *Path/*Edge from this package).
type CostWeights interface {
	BetaTime() float64
	BetaLength() float64
}

// Network owns Nodes, Edges, and ODs. Ownership is strictly hierarchical:
// network -> OD -> paths, network -> edges; paths reference edges and their
// OD without owning them.
type Network struct {
	Name string

	nodes []*Node // dense, index i holds node with ID i+1
	edges map[EdgeKey]*Edge

	// EdgesList preserves file-load order for deterministic iteration
	// (CSV output, DOT export) independent of map iteration order.
	EdgesList []*Edge

	ods map[ODKey]*OD

	// origins lists origin ids with at least one positive-demand OD, in
	// ascending order, so Dijkstra is run once per origin in a
	// deterministic sequence.
	origins []int64
	// odsByOrigin groups ODs for each origin, ascending by destination id.
	odsByOrigin map[int64][]*OD
}

func NewNetwork(name string) *Network {
	return &Network{
		Name:        name,
		edges:       make(map[EdgeKey]*Edge),
		ods:         make(map[ODKey]*OD),
		odsByOrigin: make(map[int64][]*OD),
	}
}

// AddNode registers a node. Nodes must be added in ascending, dense
// 1..N order (the order TNTP node files use).
func (n *Network) AddNode(node *Node) {
	n.nodes = append(n.nodes, node)
}

// Node returns the node with the given id, or nil if out of range.
func (n *Network) Node(id int64) *Node {
	if id < 1 || int(id) > len(n.nodes) {
		return nil
	}
	return n.nodes[id-1]
}

// Nodes returns every node in ascending id order.
func (n *Network) Nodes() []*Node {
	return n.nodes
}

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int {
	return len(n.nodes)
}

// AddEdge registers an edge and its adjacency-list entry. Edges are
// assigned ids 1..M in the order added.
func (n *Network) AddEdge(e *Edge) {
	e.ID = len(n.EdgesList) + 1
	n.edges[e.Key()] = e
	n.EdgesList = append(n.EdgesList, e)

	tail := n.Node(e.Tail)
	if tail != nil {
		tail.Outgoing = append(tail.Outgoing, e.Head)
	}
}

// Edge returns the edge (tail,head) in O(1), and false if absent (NoSuchEdge).
func (n *Network) Edge(tail, head int64) (*Edge, bool) {
	e, ok := n.edges[EdgeKey{Tail: tail, Head: head}]
	return e, ok
}

// EdgeCount returns the number of edges.
func (n *Network) EdgeCount() int {
	return len(n.EdgesList)
}

// Neighbours returns the outgoing node ids of node.
func (n *Network) Neighbours(node int64) []int64 {
	nd := n.Node(node)
	if nd == nil {
		return nil
	}
	return nd.Outgoing
}

// AddOD registers an OD pair. ODs with non-positive demand are still
// stored (demand 0 means the pair is absent per the OD(o,d) contract),
// but only positive-demand ODs participate in origin-grouped iteration.
func (n *Network) AddOD(od *OD) {
	key := od.Key()
	n.ods[key] = od

	if od.Demand <= 0 {
		return
	}

	if _, seen := n.odsByOrigin[od.O]; !seen {
		n.origins = append(n.origins, od.O)
		sort.Slice(n.origins, func(i, j int) bool { return n.origins[i] < n.origins[j] })
	}
	n.odsByOrigin[od.O] = append(n.odsByOrigin[od.O], od)
	sort.Slice(n.odsByOrigin[od.O], func(i, j int) bool {
		return n.odsByOrigin[od.O][i].D < n.odsByOrigin[od.O][j].D
	})

	if nd := n.Node(od.O); nd != nil {
		nd.HasDemandFrom = true
	}
	if nd := n.Node(od.D); nd != nil {
		nd.HasDemandTo = true
	}
}

// OD returns the OD for (o,d) in O(1); absent means zero demand.
func (n *Network) OD(o, d int64) (*OD, bool) {
	od, ok := n.ods[ODKey{O: o, D: d}]
	return od, ok
}

// Origins returns, in ascending order, every origin with at least one
// positive-demand OD.
func (n *Network) Origins() []int64 {
	return n.origins
}

// ODsFrom returns the positive-demand ODs originating at o, ascending by
// destination id: the iteration order required for deterministic
// origin-grouped Dijkstra dispatch.
func (n *Network) ODsFrom(o int64) []*OD {
	return n.odsByOrigin[o]
}

// AllODs returns every OD in deterministic origin-then-destination order.
func (n *Network) AllODs() []*OD {
	result := make([]*OD, 0, len(n.ods))
	for _, o := range n.origins {
		result = append(result, n.odsByOrigin[o]...)
	}
	return result
}

// ODCount returns the number of positive-demand ODs.
func (n *Network) ODCount() int {
	count := 0
	for _, o := range n.origins {
		count += len(n.odsByOrigin[o])
	}
	return count
}

// LoadNetwork resets every edge's flow to 0, then for each path in every
// OD's restricted choice set adds path.Flow to each of its edges.
func (n *Network) LoadNetwork() {
	for _, e := range n.EdgesList {
		e.Flow = 0
	}
	for _, od := range n.AllODs() {
		for _, p := range od.RestrictedChoiceSet {
			for _, e := range p.Edges {
				e.Flow += p.Flow
			}
		}
	}
}

// UpdateEdgeCosts recomputes every edge's Time (BPR) and GenCost using the
// RUM's beta weights.
func (n *Network) UpdateEdgeCosts(weights CostWeights) {
	betaTime, betaLength := weights.BetaTime(), weights.BetaLength()
	for _, e := range n.EdgesList {
		e.Time = e.BPRTime()
		e.GenCost = e.GeneralizedCost(betaTime, betaLength)
	}
}

// UpdatePathCosts refreshes every path's GenCost and Length, then each OD's
// MinimumCost.
func (n *Network) UpdatePathCosts() {
	for _, od := range n.AllODs() {
		for _, p := range od.RestrictedChoiceSet {
			p.RefreshGenCost()
			p.RefreshLength()
		}
		od.RefreshMinimumCost()
	}
}

// Validate performs structural sanity checks: every edge's endpoints exist,
// no self-loops, no negative capacities/costs.
func (n *Network) Validate() []error {
	var errs []error
	for _, e := range n.EdgesList {
		if n.Node(e.Tail) == nil {
			errs = append(errs, fmt.Errorf("edge %d references non-existent tail node %d", e.ID, e.Tail))
		}
		if n.Node(e.Head) == nil {
			errs = append(errs, fmt.Errorf("edge %d references non-existent head node %d", e.ID, e.Head))
		}
		if e.Tail == e.Head {
			errs = append(errs, fmt.Errorf("edge %d is a self-loop at node %d", e.ID, e.Tail))
		}
		if e.Capacity < 0 {
			errs = append(errs, fmt.Errorf("edge %d has negative capacity", e.ID))
		}
		if e.FreeFlowTime < 0 {
			errs = append(errs, fmt.Errorf("edge %d has negative free-flow time", e.ID))
		}
	}
	for _, od := range n.AllODs() {
		if od.O == od.D {
			errs = append(errs, fmt.Errorf("OD (%d,%d): origin equals destination", od.O, od.D))
		}
		if od.Demand < 0 {
			errs = append(errs, fmt.Errorf("OD (%d,%d): negative demand", od.O, od.D))
		}
	}
	return errs
}
