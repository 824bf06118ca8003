package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "RSUET_"
	configEnvVar = "RSUET_CONFIG_PATH"
)

// Loader loads configuration from defaults, a YAML file, and the environment.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/rsuet/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths sets the list of candidate config file paths.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load loads configuration with priority (lowest to highest):
// 1. Defaults, 2. Config file (yaml), 3. Environment variables.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		"app.name":    "rsuet",
		"app.version": "0.1.0",
		"app.debug":   false,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"metrics.enabled":   false,
		"metrics.addr":      "",
		"metrics.path":      "/metrics",
		"metrics.namespace": "rsuet",
		"metrics.subsystem": "solver",

		"audit.enabled":   true,
		"audit.backend":   "stdout",
		"audit.file_path": "",

		"network.dir":                      "",
		"network.name":                     "",
		"network.is_network_bidirectional": false,
		"network.demand_scale":             1.0,

		"rum.kind":               "mnl",
		"rum.theta":              1.0,
		"rum.beta_time":          1.0,
		"rum.beta_length":        0.0,
		"rum.phi_kind":           "taumin",
		"rum.phi_k":              1.3,
		"rum.omega_kind":         "taumin",
		"rum.omega_k":            1.3,
		"rum.path_size_exponent": 1.0,

		"solver.maximum_cost_ratio":       1.3,
		"solver.local_maximum_cost_ratio": 1.3,
		"solver.epsilon":                  1e-4,
		"solver.outer_max":                100,
		"solver.inner_max":                1000,
		"solver.parallel":                 false,

		"report.output_dir":                         "output",
		"report.minimum_flow_to_be_considered_used": 1e-6,
		"report.draw_network":                       false,
		"report.verbose":                            false,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(
				strings.TrimPrefix(s, l.envPrefix),
			),
			"_", ".",
		)
	}), nil)
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load is a convenience function using the default search paths.
func Load() (*Config, error) {
	return NewLoader().Load()
}

// watchDebounce is the minimum interval between successive reloads
// triggered by the CLI's --watch mode, to absorb editor save bursts.
const watchDebounce = 500 * time.Millisecond

// WatchDebounce returns the debounce interval used by cmd/rsuet's
// fsnotify-driven re-run loop.
func WatchDebounce() time.Duration {
	return watchDebounce
}
