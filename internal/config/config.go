// Package config loads the slotplanner YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/kavach-slot-planner/core"
	"github.com/signalsfoundry/kavach-slot-planner/internal/logging"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "configs/slotplanner.yaml"

const maxFrequencies = 16

// Config represents the complete planner configuration
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Report  ReportConfig  `yaml:"report"`
}

// EngineConfig contains allocation limits
type EngineConfig struct {
	MaxFrequencies      int     `yaml:"max_frequencies"`
	MaxSlots            int     `yaml:"max_slots"`
	DefaultSafeRadiusKm float64 `yaml:"default_safe_radius_km"`
}

// StoreConfig contains approved-station database settings
type StoreConfig struct {
	Path string `yaml:"path"`
	// ImportSafeRadiusKm is given to stations imported from a lookup file.
	ImportSafeRadiusKm float64 `yaml:"import_safe_radius_km"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig contains Prometheus textfile export settings. An empty path
// disables the export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// ReportConfig selects the report outputs
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Matrix    bool   `yaml:"matrix"`
	CSV       bool   `yaml:"csv"`
	JSON      bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxFrequencies:      model.DefaultMaxFrequencies,
			MaxSlots:            model.DefaultSlotsPerFrequency,
			DefaultSafeRadiusKm: model.DefaultSafeRadiusKm,
		},
		Store: StoreConfig{
			Path:               "data/approved_stations.db",
			ImportSafeRadiusKm: 25,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			Endpoint:    "localhost:4317",
			ServiceName: "kavach-slot-planner",
			SampleRatio: 1,
		},
		Report: ReportConfig{OutputDir: "output", Matrix: true, CSV: true, JSON: true},
	}
}

// Load reads filename over the defaults. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.MaxFrequencies < 1 || c.Engine.MaxFrequencies > maxFrequencies {
		errs = append(errs, fmt.Errorf("engine.max_frequencies %d not in 1..%d", c.Engine.MaxFrequencies, maxFrequencies))
	}
	if c.Engine.MaxSlots < 1 || c.Engine.MaxSlots > model.DefaultSlotsPerFrequency {
		errs = append(errs, fmt.Errorf("engine.max_slots %d not in 1..%d", c.Engine.MaxSlots, model.DefaultSlotsPerFrequency))
	}
	if !(c.Engine.DefaultSafeRadiusKm > 0) {
		errs = append(errs, fmt.Errorf("engine.default_safe_radius_km must be positive"))
	}
	if !(c.Store.ImportSafeRadiusKm > 0) {
		errs = append(errs, fmt.Errorf("store.import_safe_radius_km must be positive"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio %v not in [0,1]", c.Tracing.SampleRatio))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q must be stdout or otlp", c.Tracing.Exporter))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// EngineConfig converts the engine section for core.NewAllocationEngine.
func (c *Config) EngineConfig() core.EngineConfig {
	return core.EngineConfig{
		MaxFrequencies:      c.Engine.MaxFrequencies,
		MaxSlots:            c.Engine.MaxSlots,
		DefaultSafeRadiusKm: c.Engine.DefaultSafeRadiusKm,
	}
}

// LoggingConfig converts the logging section, applying LOG_* overrides.
func (c *Config) LoggingConfig() logging.Config {
	return logging.ApplyEnv(logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Logging.File,
	})
}
