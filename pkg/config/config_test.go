package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "rsuet"},
		Log: LogConfig{Level: "info"},
		RUM: RUMConfig{Kind: "mnl", Theta: 0.5},
		Solver: SolverConfig{
			MaximumCostRatio:      1.3,
			LocalMaximumCostRatio: 1.3,
			Epsilon:               1e-4,
			OuterMax:              100,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingAppName(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	assert.ErrorContains(t, cfg.Validate(), "app.name")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "log.level")
}

func TestValidate_BadRUMKind(t *testing.T) {
	cfg := validConfig()
	cfg.RUM.Kind = "probit"
	assert.ErrorContains(t, cfg.Validate(), "rum.kind")
}

func TestValidate_NonPositiveTheta(t *testing.T) {
	cfg := validConfig()
	cfg.RUM.Theta = 0
	assert.ErrorContains(t, cfg.Validate(), "rum.theta")
}

func TestValidate_CostRatioBelowOne(t *testing.T) {
	cfg := validConfig()
	cfg.Solver.MaximumCostRatio = 0.9
	assert.ErrorContains(t, cfg.Validate(), "maximum_cost_ratio")

	cfg = validConfig()
	cfg.Solver.LocalMaximumCostRatio = 0.9
	assert.ErrorContains(t, cfg.Validate(), "local_maximum_cost_ratio")
}

func TestValidate_NonPositiveEpsilon(t *testing.T) {
	cfg := validConfig()
	cfg.Solver.Epsilon = 0
	assert.ErrorContains(t, cfg.Validate(), "epsilon")
}

func TestValidate_NonPositiveOuterMax(t *testing.T) {
	cfg := validConfig()
	cfg.Solver.OuterMax = 0
	assert.ErrorContains(t, cfg.Validate(), "outer_max")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "app.name")
	assert.ErrorContains(t, err, "log.level")
}
