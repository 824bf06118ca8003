package report

import (
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/madspDTU/rsuet/internal/graph"
)

// NetworkDrawer renders a network for external visual inspection. The
// solver only ever needs this interface; DOTDrawer is the static Graphviz
// implementation.
type NetworkDrawer interface {
	Draw(net *graph.Network, w io.Writer) error
}

// DOTDrawer exports the network as a Graphviz DOT digraph: nodes carry
// their planar coordinates as pos attributes, edges their current flow and
// time as a label.
type DOTDrawer struct{}

// Draw writes the DOT representation of net to w.
func (DOTDrawer) Draw(net *graph.Network, w io.Writer) error {
	g := simple.NewDirectedGraph()
	for _, n := range net.Nodes() {
		g.AddNode(dotNode{id: n.ID, x: n.X, y: n.Y})
	}
	for _, e := range net.EdgesList {
		g.SetEdge(dotEdge{
			Edge: simple.Edge{
				F: dotNode{id: e.Tail},
				T: dotNode{id: e.Head},
			},
			flow: e.Flow,
			time: e.Time,
		})
	}

	data, err := dot.Marshal(g, net.Name, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var _ NetworkDrawer = DOTDrawer{}

type dotNode struct {
	id   int64
	x, y float64
}

func (n dotNode) ID() int64 { return n.id }

func (n dotNode) DOTID() string { return strconv.FormatInt(n.id, 10) }

func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "pos", Value: fmt.Sprintf("%g,%g!", n.x, n.y)},
	}
}

type dotEdge struct {
	simple.Edge
	flow, time float64
}

func (e dotEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: fmt.Sprintf("%.1f / %.1f", e.flow, e.time)},
	}
}
