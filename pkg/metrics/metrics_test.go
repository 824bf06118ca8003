package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	return InitMetrics("rsuet_test", t.Name())
}

func TestRecordNetwork(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordNetwork(24, 76, 528)

	assert.Equal(t, float64(24), gaugeValue(t, m.GraphNodesTotal))
	assert.Equal(t, float64(76), gaugeValue(t, m.GraphEdgesTotal))
	assert.Equal(t, float64(528), gaugeValue(t, m.GraphODTotal))
}

func TestRecordOuterIteration(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordOuterIteration(3, 42, 1.5e-5, 8, 3.2)

	assert.Equal(t, 1.5e-5, gaugeValue(t, m.RelGapUsed))
	assert.Equal(t, float64(8), gaugeValue(t, m.ChoiceSetSizeMax))
	assert.Equal(t, 3.2, gaugeValue(t, m.ChoiceSetSizeAvg))
}

func TestRecordRun(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordRun("CONVERGED", 12, 250*time.Millisecond)

	counter, err := m.RunsTotal.GetMetricWithLabelValues("CONVERGED")
	require.NoError(t, err)
	var d dto.Metric
	require.NoError(t, counter.Write(&d))
	assert.Equal(t, float64(1), d.GetCounter().GetValue())
}

func TestTimer_ObserveDuration(t *testing.T) {
	m := newTestMetrics(t)
	timer := NewTimer(m.RunDuration)
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()
	assert.Greater(t, d, time.Duration(0))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var d dto.Metric
	require.NoError(t, g.Write(&d))
	return d.GetGauge().GetValue()
}
