package tntp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madspDTU/rsuet/internal/rum"
	"github.com/madspDTU/rsuet/internal/solver"
	"github.com/madspDTU/rsuet/pkg/apperror"
)

func TestLoad_ParsesTriplet(t *testing.T) {
	net, err := Load(filepath.Join("testdata", "parallel"), "parallel", Options{})
	require.NoError(t, err)

	assert.Equal(t, "parallel", net.Name)
	assert.Equal(t, 4, net.NodeCount())
	assert.Equal(t, 4, net.EdgeCount())

	e, ok := net.Edge(1, 2)
	require.True(t, ok)
	assert.Equal(t, 1, e.ID, "edge ids follow file order")
	assert.InDelta(t, 50, e.Capacity, 1e-9)
	assert.InDelta(t, 5, e.FreeFlowTime, 1e-9)
	assert.InDelta(t, 1, e.Length, 1e-9)
	assert.InDelta(t, 0.15, e.B, 1e-9)
	assert.InDelta(t, 4, e.Power, 1e-9)

	od, ok := net.OD(1, 4)
	require.True(t, ok)
	assert.InDelta(t, 100, od.Demand, 1e-9)
	assert.Equal(t, []int64{1}, net.Origins())

	n := net.Node(4)
	require.NotNil(t, n)
	assert.InDelta(t, 2, n.X, 1e-9)
	assert.InDelta(t, 0, n.Y, 1e-9)
	assert.True(t, net.Node(1).HasDemandFrom)
	assert.True(t, net.Node(4).HasDemandTo)
}

func TestLoad_Bidirectional(t *testing.T) {
	net, err := Load(filepath.Join("testdata", "parallel"), "", Options{Bidirectional: true})
	require.NoError(t, err)

	assert.Equal(t, 8, net.EdgeCount())
	reverse, ok := net.Edge(2, 1)
	require.True(t, ok)
	forward, _ := net.Edge(1, 2)
	assert.InDelta(t, forward.FreeFlowTime, reverse.FreeFlowTime, 1e-9)
	assert.InDelta(t, forward.Capacity, reverse.Capacity, 1e-9)
}

func TestLoad_DemandScale(t *testing.T) {
	net, err := Load(filepath.Join("testdata", "parallel"), "", Options{DemandScale: 0.5})
	require.NoError(t, err)

	od, ok := net.OD(1, 4)
	require.True(t, ok)
	assert.InDelta(t, 50, od.Demand, 1e-9)
}

func TestLoad_MissingNetFile(t *testing.T) {
	_, err := Load(t.TempDir(), "", Options{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMissingFile))
}

func TestLoad_SynthesisesNodesWhenNodeFileAbsent(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "tiny_net.tntp", `<NUMBER OF NODES> 2
<NUMBER OF LINKS> 1
<END OF METADATA>
~ from to cap len fft b power ;
1 2 100 1 10 0.15 4 ;
`)
	writeFixture(t, dir, "tiny_trips.tntp", `<END OF METADATA>
Origin 1
2 : 10;
`)

	net, err := Load(dir, "tiny", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, net.NodeCount())
	assert.Zero(t, net.Node(1).X)
	assert.Zero(t, net.Node(1).Y)
}

func TestLoad_MalformedNetRow(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "bad_net.tntp", `<NUMBER OF NODES> 2
<END OF METADATA>
~ header ;
1 2 not-a-number 1 10 0.15 4 ;
`)
	writeFixture(t, dir, "bad_trips.tntp", "<END OF METADATA>\n")

	_, err := Load(dir, "", Options{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMalformedRow))
}

func TestLoad_MissingMetadataTerminator(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "bad_net.tntp", "<NUMBER OF NODES> 2\n")
	writeFixture(t, dir, "bad_trips.tntp", "<END OF METADATA>\n")

	_, err := Load(dir, "", Options{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMalformedHeader))
}

func TestLoad_DropsNonPositiveDemand(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "tiny_net.tntp", `<NUMBER OF NODES> 3
<END OF METADATA>
~ header ;
1 2 100 1 10 0.15 4 ;
1 3 100 1 10 0.15 4 ;
`)
	writeFixture(t, dir, "tiny_trips.tntp", `<END OF METADATA>
Origin 1
2 : 0; 3 : 25;
`)

	net, err := Load(dir, "", Options{})
	require.NoError(t, err)
	_, ok := net.OD(1, 2)
	if ok {
		od, _ := net.OD(1, 2)
		assert.Zero(t, od.Demand)
	}
	assert.Equal(t, 1, net.ODCount(), "only the positive-demand OD participates")
}

// TestLoad_ThenSolve drives the parsed network end to end through the
// RSUET driver: the two-route fixture must converge with both routes
// carrying flow and demand intact.
func TestLoad_ThenSolve(t *testing.T) {
	net, err := Load(filepath.Join("testdata", "parallel"), "parallel", Options{})
	require.NoError(t, err)

	r, err := rum.New(rum.MNL, 0.1, 1, 0, 1, nil)
	require.NoError(t, err)
	phi, err := rum.NewMultiplicative(5)
	require.NoError(t, err)
	omega, err := rum.NewMultiplicative(5)
	require.NoError(t, err)

	d, err := solver.New(net, r, solver.Thresholds{Phi: phi, Omega: omega}, solver.DefaultOptions())
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.OutcomeConverged, res.Outcome)

	od, ok := net.OD(1, 4)
	require.True(t, ok)
	assert.Len(t, od.RestrictedChoiceSet, 2)
	assert.InDelta(t, 100, od.TotalFlow(), 1e-6)
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
