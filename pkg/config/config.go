// Package config provides layered configuration (defaults, YAML file,
// environment variables) for the RSUET solver CLI.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Audit   AuditConfig   `koanf:"audit"`
	Network NetworkConfig `koanf:"network"`
	RUM     RUMConfig     `koanf:"rum"`
	Solver  SolverConfig  `koanf:"solver"`
	Report  ReportConfig  `koanf:"report"`
}

// AppConfig holds general run identification.
type AppConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
	Debug   bool   `koanf:"debug"`
}

// LogConfig controls level, format, and destination of process logs.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig controls Prometheus metric collection and export.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Addr      string `koanf:"addr"` // e.g. ":9090"; empty disables the HTTP endpoint
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// AuditConfig controls the JSON audit trail of solver runs.
type AuditConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Backend  string `koanf:"backend"` // stdout, file
	FilePath string `koanf:"file_path"`
}

// NetworkConfig describes the TNTP input and loading options.
type NetworkConfig struct {
	Dir                    string  `koanf:"dir"`
	Name                   string  `koanf:"name"`
	IsNetworkBidirectional bool    `koanf:"is_network_bidirectional"`
	DemandScale            float64 `koanf:"demand_scale"`
}

// RUMConfig describes the Random Utility Model parameters.
type RUMConfig struct {
	Kind             string  `koanf:"kind"` // mnl, tmnl, psl
	Theta            float64 `koanf:"theta"`
	BetaTime         float64 `koanf:"beta_time"`
	BetaLength       float64 `koanf:"beta_length"`
	PhiKind          string  `koanf:"phi_kind"`   // taumin, minplusdelta
	PhiK             float64 `koanf:"phi_k"`      // reference-cost multiplier for phi
	OmegaKind        string  `koanf:"omega_kind"` // taumin, minplusdelta
	OmegaK           float64 `koanf:"omega_k"`    // reference-cost multiplier for omega
	PathSizeExponent float64 `koanf:"path_size_exponent"`
}

// SolverConfig describes the RSUET driver's numerical parameters.
type SolverConfig struct {
	MaximumCostRatio      float64 `koanf:"maximum_cost_ratio"`
	LocalMaximumCostRatio float64 `koanf:"local_maximum_cost_ratio"`
	Epsilon               float64 `koanf:"epsilon"`
	OuterMax              int     `koanf:"outer_max"`
	InnerMax              int     `koanf:"inner_max"`
	Parallel              bool    `koanf:"parallel"`
}

// ReportConfig controls CSV/DOT output.
type ReportConfig struct {
	OutputDir                     string  `koanf:"output_dir"`
	MinimumFlowToBeConsideredUsed float64 `koanf:"minimum_flow_to_be_considered_used"`
	DrawNetwork                   bool    `koanf:"draw_network"`
	Verbose                       bool    `koanf:"verbose"`
}

// Validate checks the configuration for values the driver would otherwise
// reject deep inside a solve, surfacing them at startup instead.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validRUM := map[string]bool{"mnl": true, "tmnl": true, "psl": true}
	if !validRUM[strings.ToLower(c.RUM.Kind)] {
		errs = append(errs, fmt.Sprintf("rum.kind must be one of: mnl, tmnl, psl, got %s", c.RUM.Kind))
	}

	if c.RUM.Theta <= 0 {
		errs = append(errs, "rum.theta must be > 0")
	}

	if c.Solver.MaximumCostRatio < 1 {
		errs = append(errs, "solver.maximum_cost_ratio must be >= 1")
	}

	if c.Solver.LocalMaximumCostRatio < 1 {
		errs = append(errs, "solver.local_maximum_cost_ratio must be >= 1")
	}

	if c.Solver.LocalMaximumCostRatio > c.Solver.MaximumCostRatio {
		errs = append(errs, "solver.local_maximum_cost_ratio must be <= solver.maximum_cost_ratio")
	}

	if c.Solver.Epsilon <= 0 {
		errs = append(errs, "solver.epsilon must be > 0")
	}

	if c.Solver.OuterMax <= 0 {
		errs = append(errs, "solver.outer_max must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
