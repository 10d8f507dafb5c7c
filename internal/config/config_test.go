package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slotplanner.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxFrequencies != 7 || cfg.Engine.MaxSlots != 44 || cfg.Engine.DefaultSafeRadiusKm != 12 {
		t.Fatalf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Store.ImportSafeRadiusKm != 25 || cfg.Store.Path == "" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if err := cfg.EngineConfig().Validate(); err != nil {
		t.Fatalf("default engine config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `engine:
  max_frequencies: 4
store:
  path: "/tmp/x.db"
tracing:
  enabled: true
  exporter: otlp
report:
  csv: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxFrequencies != 4 || cfg.Engine.MaxSlots != 44 {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Store.Path != "/tmp/x.db" || !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "otlp" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Report.CSV || !cfg.Report.JSON {
		t.Fatalf("report = %+v", cfg.Report)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"too many slots", "engine:\n  max_slots: 45\n", "max_slots"},
		{"zero frequencies", "engine:\n  max_frequencies: 0\n", "max_frequencies"},
		{"bad ratio", "tracing:\n  sample_ratio: 2\n", "sample_ratio"},
		{"bad exporter", "tracing:\n  exporter: zipkin\n", "exporter"},
		{"bad radius", "engine:\n  default_safe_radius_km: -1\n", "default_safe_radius_km"},
		{"not yaml", "engine: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoggingConfigAppliesEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	cfg := Default()
	if got := cfg.LoggingConfig(); got.Level != "debug" || got.Format != "text" {
		t.Fatalf("logging = %+v", got)
	}
}
