package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/internal/solver"
)

func buildNetwork(t *testing.T) *graph.Network {
	t.Helper()
	net := graph.NewNetwork("tiny")
	net.AddNode(&graph.Node{ID: 1, X: 0, Y: 0})
	net.AddNode(&graph.Node{ID: 2, X: 1, Y: 1})
	e := &graph.Edge{Tail: 1, Head: 2, Capacity: 100, FreeFlowTime: 10, Length: 1, B: 0.15, Power: 4}
	net.AddEdge(e)
	e.Flow = 25
	e.Time = 10.1
	e.GenCost = 10.1

	od := &graph.OD{O: 1, D: 2, Demand: 25}
	net.AddOD(od)
	p := graph.NewPath(od.Key(), []*graph.Edge{e})
	p.Flow = 25
	p.P = 1
	p.GenCost = 10.1
	od.RestrictedChoiceSet = []*graph.Path{p}
	return net
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestCSVSet_WritesAllFiles(t *testing.T) {
	dir := t.TempDir()
	set, err := NewCSVSet(dir)
	require.NoError(t, err)

	net := buildNetwork(t)
	require.NoError(t, set.WriteFlow(net))
	require.NoError(t, set.WriteParameters([]Parameter{{Key: "theta", Value: "0.5"}}))
	require.NoError(t, set.WriteChoiceSets(net, 1e-6))
	require.NoError(t, set.WriteChoiceSetSummary(net))
	require.NoError(t, set.WriteConvergence([]solver.ConvergenceRow{
		{Outer: 1, Inner: 12, RelGapUsed: 3.2e-5, MaxChoiceSetSize: 1, AvgChoiceSetSize: 1},
	}))

	flow := readFile(t, dir, "flow.csv")
	assert.True(t, strings.HasPrefix(flow, "EdgeID;Flow;Time\n"))
	assert.Contains(t, flow, "1;25.000000;10.100000")

	params := readFile(t, dir, "parameters.csv")
	assert.Contains(t, params, "theta;0.5")

	sets := readFile(t, dir, "choice-sets.csv")
	assert.True(t, strings.HasPrefix(sets, "O;D;Path;Choice-P;Flow;Generalized-cost\n"))
	assert.Contains(t, sets, "1;2;1 2;1.000000;25.000000;10.100000")

	summary := readFile(t, dir, "choice-set-summary.csv")
	assert.Contains(t, summary, "Average;Maximum")

	conv := readFile(t, dir, "convergence.csv")
	assert.Contains(t, conv, "Outer;Inner;RelGapUsed;MaxChoiceSetSize;AvgChoiceSetSize")
	assert.Contains(t, conv, "1;12;")
}

func TestCSVSet_ChoiceSetsSkipsUnusedPaths(t *testing.T) {
	dir := t.TempDir()
	set, err := NewCSVSet(dir)
	require.NoError(t, err)

	net := buildNetwork(t)
	od, _ := net.OD(1, 2)
	od.RestrictedChoiceSet[0].Flow = 0

	require.NoError(t, set.WriteChoiceSets(net, 1e-6))
	sets := readFile(t, dir, "choice-sets.csv")
	lines := strings.Split(strings.TrimSpace(sets), "\n")
	assert.Len(t, lines, 1, "only the header remains when no path is used")
}

func TestConsoleReporter_VerbosePrintsRows(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleReporterTo(&buf, true)

	c.OuterIteration(solver.ConvergenceRow{Outer: 1, Inner: 7, RelGapUsed: 1.5e-3, MaxChoiceSetSize: 2, AvgChoiceSetSize: 1.5})
	c.Done(&solver.Result{
		Outcome:         solver.OutcomeConverged,
		OuterIterations: 1,
		RelGapUsed:      1.5e-3,
		Record:          []solver.ConvergenceRow{{Outer: 1, Inner: 7, RelGapUsed: 1.5e-3, MaxChoiceSetSize: 2, AvgChoiceSetSize: 1.5}},
		Duration:        time.Second,
	})

	out := buf.String()
	assert.Contains(t, out, "relGapUsed")
	assert.Contains(t, out, "converged")
}

func TestConsoleReporter_QuietOnlySummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleReporterTo(&buf, false)

	c.OuterIteration(solver.ConvergenceRow{Outer: 1})
	assert.Empty(t, buf.String())

	c.Done(&solver.Result{Outcome: solver.OutcomeNonConvergence})
	assert.Contains(t, buf.String(), "did not converge")
}

func TestDOTDrawer_EmitsDigraph(t *testing.T) {
	var buf bytes.Buffer
	net := buildNetwork(t)
	require.NoError(t, DOTDrawer{}.Draw(net, &buf))

	out := buf.String()
	assert.Contains(t, out, "digraph tiny")
	assert.Contains(t, out, "1 -> 2")
	assert.Contains(t, out, "pos")
	assert.Contains(t, out, "label")
}
