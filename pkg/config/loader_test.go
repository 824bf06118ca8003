package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths("/nonexistent/config.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "rsuet", cfg.App.Name)
	assert.Equal(t, "mnl", cfg.RUM.Kind)
	assert.Equal(t, 1.3, cfg.Solver.MaximumCostRatio)
	assert.Equal(t, 100, cfg.Solver.OuterMax)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
rum:
  kind: psl
  theta: 0.25
solver:
  epsilon: 0.00001
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewLoader(WithConfigPaths(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, "psl", cfg.RUM.Kind)
	assert.Equal(t, 0.25, cfg.RUM.Theta)
	assert.Equal(t, 0.00001, cfg.Solver.Epsilon)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rum:\n  kind: mnl\n"), 0644))

	t.Setenv("RSUET_RUM_KIND", "tmnl")

	cfg, err := NewLoader(WithConfigPaths(path), WithEnvPrefix("RSUET_")).Load()
	require.NoError(t, err)
	assert.Equal(t, "tmnl", cfg.RUM.Kind)
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: \"\"\n"), 0644))

	_, err := NewLoader(WithConfigPaths(path)).Load()
	assert.Error(t, err)
}

func TestMustLoad_Panics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rum:\n  theta: -1\n"), 0644))

	assert.Panics(t, func() {
		MustLoad(WithConfigPaths(path))
	})
}
