package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	// Storage defaults
	if cfg.Storage.Bucket != "data-platform" {
		t.Errorf("Expected Storage.Bucket 'data-platform', got '%s'", cfg.Storage.Bucket)
	}
	if cfg.Storage.RawPrefix != "raw/" {
		t.Errorf("Expected Storage.RawPrefix 'raw/', got '%s'", cfg.Storage.RawPrefix)
	}
	if cfg.Storage.QuarantinePrefix != "quarantine/" {
		t.Errorf("Expected Storage.QuarantinePrefix 'quarantine/', got '%s'", cfg.Storage.QuarantinePrefix)
	}

	// Pipeline defaults
	if cfg.Pipeline.ChunkThreshold != "1GB" {
		t.Errorf("Expected Pipeline.ChunkThreshold '1GB', got '%s'", cfg.Pipeline.ChunkThreshold)
	}
	if cfg.Pipeline.BatchSize != 10000 {
		t.Errorf("Expected Pipeline.BatchSize 10000, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.CostRatio != 0.60 {
		t.Errorf("Expected Pipeline.CostRatio 0.60, got %f", cfg.Pipeline.CostRatio)
	}
}

func TestLoadMissingFile(t *testing.T) {
	// Loading without any config file present should fall back to defaults.
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Pipeline.BatchSize != 10000 {
		t.Errorf("Expected default BatchSize 10000, got %d", cfg.Pipeline.BatchSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "sales-etl.yaml")
	content := `
connection: postgres://etl@localhost:5432/analytics
log_level: debug
storage:
  endpoint: minio:9000
  bucket: sales
pipeline:
  chunk_threshold: 512MB
  batch_size: 2500
  cost_ratio: 0.55
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Connection != "postgres://etl@localhost:5432/analytics" {
		t.Errorf("Unexpected Connection: %s", cfg.Connection)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.Storage.Endpoint != "minio:9000" {
		t.Errorf("Expected Storage.Endpoint 'minio:9000', got '%s'", cfg.Storage.Endpoint)
	}
	if cfg.Pipeline.BatchSize != 2500 {
		t.Errorf("Expected BatchSize 2500, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.CostRatio != 0.55 {
		t.Errorf("Expected CostRatio 0.55, got %f", cfg.Pipeline.CostRatio)
	}
	// Values absent from the file keep their defaults.
	if cfg.Storage.RawPrefix != "raw/" {
		t.Errorf("Expected default RawPrefix 'raw/', got '%s'", cfg.Storage.RawPrefix)
	}
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing connection",
			mutate:  func(c *Config) { c.Connection = "" },
			wantErr: true,
		},
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.Storage.Endpoint = "" },
			wantErr: true,
		},
		{
			name:    "missing bucket",
			mutate:  func(c *Config) { c.Storage.Bucket = "" },
			wantErr: true,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Pipeline.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "bad chunk threshold",
			mutate:  func(c *Config) { c.Pipeline.ChunkThreshold = "huge" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Connection = "postgres://etl@localhost:5432/analytics"
			tt.mutate(cfg)

			err := cfg.ValidateRun()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestValidateGenerate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateGenerate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	cfg.Generate.Rows = 0
	if err := cfg.ValidateGenerate(); err == nil {
		t.Error("Expected error for zero rows")
	}

	cfg.Generate.Rows = 10
	cfg.Generate.InvalidRate = 1.5
	if err := cfg.ValidateGenerate(); err == nil {
		t.Error("Expected error for invalid_rate > 1")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1GB", 1024 * 1024 * 1024, false},
		{"500MB", 500 * 1024 * 1024, false},
		{"10KB", 10 * 1024, false},
		{"128B", 128, false},
		{"1.5GB", int64(1.5 * 1024 * 1024 * 1024), false},
		{"abc", 0, true},
		{"10XB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
