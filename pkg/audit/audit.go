// Package audit records one structured JSON line per solver run: the
// parameters it was given, the network it ran against, and its outcome.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal status of a solver run.
type Outcome string

const (
	OutcomeConverged      Outcome = "CONVERGED"
	OutcomeNonConvergence Outcome = "NON_CONVERGENCE"
	OutcomeFailed         Outcome = "FAILED"
)

// RunRecord is a single audit entry for one solver invocation.
type RunRecord struct {
	ID               string         `json:"id"`
	Timestamp        time.Time      `json:"timestamp"`
	NetworkName      string         `json:"network_name"`
	NodeCount        int            `json:"node_count"`
	EdgeCount        int            `json:"edge_count"`
	ODCount          int            `json:"od_count"`
	RUMKind          string         `json:"rum_kind"`
	Theta            float64        `json:"theta"`
	MaximumCostRatio float64        `json:"maximum_cost_ratio"`
	Epsilon          float64        `json:"epsilon"`
	Outcome          Outcome        `json:"outcome"`
	OuterIterations  int            `json:"outer_iterations"`
	RelGapUsed       float64        `json:"rel_gap_used"`
	DurationMs       int64          `json:"duration_ms"`
	ErrorCode        string         `json:"error_code,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Logger records RunRecords to some backend.
type Logger interface {
	Log(r *RunRecord) error
	Close() error
}

// Config controls which backend New builds.
type Config struct {
	Enabled  bool   `koanf:"enabled"`
	Backend  string `koanf:"backend"` // stdout, file
	FilePath string `koanf:"file_path"`
}

// Builder provides a fluent API for constructing a RunRecord.
type Builder struct {
	record *RunRecord
}

// NewRecord starts a new RunRecord, stamped with the current time and a
// fresh run id.
func NewRecord() *Builder {
	return &Builder{
		record: &RunRecord{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Metadata:  make(map[string]any),
		},
	}
}

func (b *Builder) Network(name string, nodes, edges, ods int) *Builder {
	b.record.NetworkName = name
	b.record.NodeCount = nodes
	b.record.EdgeCount = edges
	b.record.ODCount = ods
	return b
}

func (b *Builder) RUM(kind string, theta float64) *Builder {
	b.record.RUMKind = kind
	b.record.Theta = theta
	return b
}

func (b *Builder) Thresholds(maximumCostRatio, epsilon float64) *Builder {
	b.record.MaximumCostRatio = maximumCostRatio
	b.record.Epsilon = epsilon
	return b
}

func (b *Builder) Result(outcome Outcome, outerIterations int, relGapUsed float64, d time.Duration) *Builder {
	b.record.Outcome = outcome
	b.record.OuterIterations = outerIterations
	b.record.RelGapUsed = relGapUsed
	b.record.DurationMs = d.Milliseconds()
	return b
}

func (b *Builder) Error(code, message string) *Builder {
	b.record.ErrorCode = code
	b.record.ErrorMessage = message
	return b
}

func (b *Builder) Meta(key string, value any) *Builder {
	b.record.Metadata[key] = value
	return b
}

func (b *Builder) Build() *RunRecord {
	return b.record
}

// MarshalJSON serializes a RunRecord with its default field tags; it is
// kept as a hook for future field masking.
func (r *RunRecord) MarshalJSON() ([]byte, error) {
	type Alias RunRecord
	return json.Marshal((*Alias)(r))
}
