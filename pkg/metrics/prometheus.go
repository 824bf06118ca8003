// Package metrics exposes Prometheus counters and gauges for the RSUET
// solver's outer/inner iteration progress and convergence state.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the container of every metric the solver updates during a run.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	OuterIterations prometheus.Histogram
	InnerIterations *prometheus.HistogramVec

	RelGapUsed         prometheus.Gauge
	ChoiceSetSizeMax   prometheus.Gauge
	ChoiceSetSizeAvg   prometheus.Gauge
	ColumnGenAdditions *prometheus.CounterVec
	PrunedPaths        *prometheus.CounterVec

	GraphNodesTotal prometheus.Gauge
	GraphEdgesTotal prometheus.Gauge
	GraphODTotal    prometheus.Gauge

	ActiveRuns prometheus.Gauge
}

var defaultMetrics *Metrics

// InitMetrics creates and registers every metric under namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of solver runs by outcome",
			},
			[]string{"outcome"},
		),

		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of a full solver run",
				Buckets:   []float64{.05, .1, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
		),

		OuterIterations: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "outer_iterations",
				Help:      "Number of outer iterations a run took to converge or hit the cap",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),

		InnerIterations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "inner_iterations",
				Help:      "Number of MSA inner iterations per outer iteration",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 1000},
			},
			[]string{"outer"},
		),

		RelGapUsed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rel_gap_used",
				Help:      "Relative used gap of the most recent outer iteration",
			},
		),

		ChoiceSetSizeMax: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "choice_set_size_max",
				Help:      "Largest restricted choice set size across all ODs",
			},
		),

		ChoiceSetSizeAvg: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "choice_set_size_avg",
				Help:      "Average restricted choice set size across all ODs",
			},
		),

		ColumnGenAdditions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "column_gen_additions_total",
				Help:      "Paths added to a restricted choice set by column generation",
			},
			[]string{"outer"},
		),

		PrunedPaths: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pruned_paths_total",
				Help:      "Paths removed by threshold pruning",
			},
			[]string{"outer"},
		),

		GraphNodesTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of nodes in the loaded network",
			},
		),

		GraphEdgesTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of edges in the loaded network",
			},
		),

		GraphODTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_od_total",
				Help:      "Number of OD pairs with positive demand",
			},
		),

		ActiveRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_runs",
				Help:      "1 while a solve is in progress, 0 otherwise (meaningful under --watch)",
			},
		),
	}

	// Runtime stats cover the memory side: the pooled Dijkstra scratch
	// and a universal-choice-set enumeration both show up here first.
	prometheus.DefaultRegisterer.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get returns the process-global metrics, initializing defaults if needed.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("rsuet", "solver")
	}
	return defaultMetrics
}

// RecordNetwork snapshots graph size gauges once the network is loaded.
func (m *Metrics) RecordNetwork(nodes, edges, ods int) {
	m.GraphNodesTotal.Set(float64(nodes))
	m.GraphEdgesTotal.Set(float64(edges))
	m.GraphODTotal.Set(float64(ods))
}

// RecordOuterIteration records per-outer-iteration convergence state.
func (m *Metrics) RecordOuterIteration(outer int, innerIterations int, relGapUsed, maxSetSize, avgSetSize float64) {
	m.InnerIterations.WithLabelValues(outerLabel(outer)).Observe(float64(innerIterations))
	m.RelGapUsed.Set(relGapUsed)
	m.ChoiceSetSizeMax.Set(maxSetSize)
	m.ChoiceSetSizeAvg.Set(avgSetSize)
}

// RecordColumnGeneration records how many paths column generation added and
// threshold pruning removed in one outer iteration.
func (m *Metrics) RecordColumnGeneration(outer int, added, pruned int) {
	m.ColumnGenAdditions.WithLabelValues(outerLabel(outer)).Add(float64(added))
	m.PrunedPaths.WithLabelValues(outerLabel(outer)).Add(float64(pruned))
}

// RecordRun finalizes the histograms/counters for a completed run.
func (m *Metrics) RecordRun(outcome string, outerIterations int, duration time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(duration.Seconds())
	m.OuterIterations.Observe(float64(outerIterations))
}

// outerLabel buckets the outer-iteration index by ten to keep the
// inner_iterations/column_gen_additions label cardinality bounded on
// networks that need many outer iterations.
func outerLabel(outer int) string {
	bucket := (outer / 10) * 10
	return strconv.Itoa(bucket)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
