// Package report holds the solver's external output collaborators: the
// semicolon-delimited CSV set, the console progress reporter, and the
// Graphviz DOT network drawer. The solver core never imports this package;
// the CLI hands it the run results.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/madspDTU/rsuet/internal/graph"
	"github.com/madspDTU/rsuet/internal/solver"
)

// CSVSet writes the per-run output files into one directory.
type CSVSet struct {
	dir string
}

// NewCSVSet creates (if needed) the output directory and returns a writer
// set targeting it.
func NewCSVSet(dir string) (*CSVSet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSVSet{dir: dir}, nil
}

// Dir returns the output directory.
func (s *CSVSet) Dir() string { return s.dir }

// WriteFlow writes flow.csv: EdgeID; Flow; Time, one row per edge in
// file-load order.
func (s *CSVSet) WriteFlow(net *graph.Network) error {
	rows := [][]string{{"EdgeID", "Flow", "Time"}}
	for _, e := range net.EdgesList {
		rows = append(rows, []string{
			strconv.Itoa(e.ID),
			formatFloat(e.Flow),
			formatFloat(e.Time),
		})
	}
	return s.writeFile("flow.csv", rows)
}

// Parameter is one key/value row of parameters.csv. A slice keeps the
// output order deterministic, unlike a map.
type Parameter struct {
	Key   string
	Value string
}

// WriteParameters writes parameters.csv with the RUM and solver settings
// of the run.
func (s *CSVSet) WriteParameters(params []Parameter) error {
	rows := [][]string{{"Parameter", "Value"}}
	for _, p := range params {
		rows = append(rows, []string{p.Key, p.Value})
	}
	return s.writeFile("parameters.csv", rows)
}

// WriteChoiceSets writes choice-sets.csv: one row per path carrying at
// least minimumFlow, with the path as a space-separated node-id sequence.
func (s *CSVSet) WriteChoiceSets(net *graph.Network, minimumFlow float64) error {
	rows := [][]string{{"O", "D", "Path", "Choice-P", "Flow", "Generalized-cost"}}
	for _, od := range net.AllODs() {
		for _, p := range od.RestrictedChoiceSet {
			if p.Flow < minimumFlow {
				continue
			}
			rows = append(rows, []string{
				strconv.FormatInt(od.O, 10),
				strconv.FormatInt(od.D, 10),
				nodeSequence(p),
				formatFloat(p.P),
				formatFloat(p.Flow),
				formatFloat(p.GenCost),
			})
		}
	}
	return s.writeFile("choice-sets.csv", rows)
}

// WriteChoiceSetSummary writes choice-set-summary.csv with the average and
// maximum restricted set size.
func (s *CSVSet) WriteChoiceSetSummary(net *graph.Network) error {
	maxSize, total, count := 0, 0, 0
	for _, od := range net.AllODs() {
		size := len(od.RestrictedChoiceSet)
		if size > maxSize {
			maxSize = size
		}
		total += size
		count++
	}
	avg := 0.0
	if count > 0 {
		avg = float64(total) / float64(count)
	}
	rows := [][]string{
		{"Average", "Maximum"},
		{formatFloat(avg), strconv.Itoa(maxSize)},
	}
	return s.writeFile("choice-set-summary.csv", rows)
}

// WriteConvergence writes convergence.csv, one row per outer iteration of
// the convergence record.
func (s *CSVSet) WriteConvergence(record []solver.ConvergenceRow) error {
	rows := [][]string{{"Outer", "Inner", "RelGapUsed", "MaxChoiceSetSize", "AvgChoiceSetSize"}}
	for _, r := range record {
		rows = append(rows, []string{
			strconv.Itoa(r.Outer),
			strconv.Itoa(r.Inner),
			strconv.FormatFloat(r.RelGapUsed, 'e', 6, 64),
			strconv.Itoa(r.MaxChoiceSetSize),
			formatFloat(r.AvgChoiceSetSize),
		})
	}
	return s.writeFile("convergence.csv", rows)
}

func (s *CSVSet) writeFile(name string, rows [][]string) error {
	file, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = ';'
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func nodeSequence(p *graph.Path) string {
	ids := p.NodeSequence()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}
