// ABOUTME: Tests for telemetry configuration validation, environment loading, and default values

package telemetry

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "sai" {
		t.Errorf("Expected default service name 'sai', got '%s'", cfg.ServiceName)
	}
	if cfg.Enabled {
		t.Error("Expected telemetry to be disabled by default")
	}
	if len(cfg.Exporters) != 1 || cfg.Exporters[0] != ExporterStdout {
		t.Errorf("Expected default exporters ['stdout'], got %v", cfg.Exporters)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.ExportTimeout != 30*time.Second {
		t.Errorf("Expected default export timeout 30s, got %s", cfg.ExportTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"empty service name", func(c *Config) { c.ServiceName = "" }, true},
		{"empty service version", func(c *Config) { c.ServiceVersion = "" }, true},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, true},
		{"sample rate too high", func(c *Config) { c.SampleRate = 1.1 }, true},
		{"bad port ignored without prometheus", func(c *Config) { c.PrometheusPort = 0 }, false},
		{"bad port with prometheus", func(c *Config) {
			c.Exporters = []string{ExporterPrometheus}
			c.PrometheusPort = 0
		}, true},
		{"otlp without endpoint", func(c *Config) {
			c.Exporters = []string{ExporterOTLP}
			c.OTLPEndpoint = ""
		}, true},
		{"invalid exporter", func(c *Config) { c.Exporters = []string{"jaeger"} }, true},
		{"zero export timeout", func(c *Config) { c.ExportTimeout = 0 }, true},
		{"zero batch timeout", func(c *Config) { c.BatchTimeout = 0 }, true},
		{"zero queue size", func(c *Config) { c.MaxQueueSize = 0 }, true},
		{"batch larger than queue", func(c *Config) { c.MaxExportBatchSize = c.MaxQueueSize + 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"SERVICE_NAME", "saiq")
	t.Setenv(EnvPrefix+"SERVICE_VERSION", "1.2.3")
	t.Setenv(EnvPrefix+"ENABLED", "true")
	t.Setenv(EnvPrefix+"EXPORTERS", "stdout, prometheus")
	t.Setenv(EnvPrefix+"SAMPLE_RATE", "0.25")
	t.Setenv(EnvPrefix+"PROMETHEUS_PORT", "9464")
	t.Setenv(EnvPrefix+"OTLP_ENDPOINT", "collector:4317")
	t.Setenv(EnvPrefix+"EXPORT_TIMEOUT", "10s")
	t.Setenv(EnvPrefix+"BATCH_TIMEOUT", "2s")
	t.Setenv(EnvPrefix+"MAX_QUEUE_SIZE", "100")
	t.Setenv(EnvPrefix+"MAX_EXPORT_BATCH_SIZE", "50")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	if cfg.ServiceName != "saiq" || cfg.ServiceVersion != "1.2.3" {
		t.Errorf("unexpected service identity %s/%s", cfg.ServiceName, cfg.ServiceVersion)
	}
	if !cfg.Enabled {
		t.Error("expected telemetry enabled from env")
	}
	if !cfg.HasExporter(ExporterStdout) || !cfg.HasExporter(ExporterPrometheus) || cfg.HasExporter(ExporterOTLP) {
		t.Errorf("unexpected exporters %v", cfg.Exporters)
	}
	if cfg.SampleRate != 0.25 || cfg.PrometheusPort != 9464 || cfg.OTLPEndpoint != "collector:4317" {
		t.Errorf("unexpected sampling/endpoint values: %+v", cfg)
	}
	if cfg.ExportTimeout != 10*time.Second || cfg.BatchTimeout != 2*time.Second {
		t.Errorf("unexpected timeouts %s/%s", cfg.ExportTimeout, cfg.BatchTimeout)
	}
	if cfg.MaxQueueSize != 100 || cfg.MaxExportBatchSize != 50 {
		t.Errorf("unexpected queue sizes %d/%d", cfg.MaxQueueSize, cfg.MaxExportBatchSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("env config should validate: %v", err)
	}
}

func TestConfigLoadFromEnvIgnoresMalformed(t *testing.T) {
	t.Setenv(EnvPrefix+"ENABLED", "maybe")
	t.Setenv(EnvPrefix+"SAMPLE_RATE", "lots")
	t.Setenv(EnvPrefix+"EXPORT_TIMEOUT", "soon")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	def := DefaultConfig()
	if cfg.Enabled != def.Enabled || cfg.SampleRate != def.SampleRate || cfg.ExportTimeout != def.ExportTimeout {
		t.Errorf("malformed values should leave defaults untouched, got %+v", cfg)
	}
}
