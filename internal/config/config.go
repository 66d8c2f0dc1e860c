//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for sales-etl.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for sales-etl.
type Config struct {
	// Connection is the analytics warehouse PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Storage holds object storage configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Pipeline holds tunables for the ETL pipeline itself.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`
}

// StorageConfig holds object storage (MinIO/S3) connection settings.
type StorageConfig struct {
	// Endpoint is the host:port of the object store.
	Endpoint string `mapstructure:"endpoint"`

	// AccessKey and SecretKey authenticate against the object store.
	// In deployed environments these are injected by the secrets
	// provider; the config file form exists for local development.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Secure enables TLS for the object store connection.
	Secure bool `mapstructure:"secure"`

	// Bucket is the bucket holding raw, processed and quarantine data.
	Bucket string `mapstructure:"bucket"`

	// RawPrefix, ProcessedPrefix and QuarantinePrefix are the key
	// prefixes for the input, archive and diagnostic areas.
	RawPrefix        string `mapstructure:"raw_prefix"`
	ProcessedPrefix  string `mapstructure:"processed_prefix"`
	QuarantinePrefix string `mapstructure:"quarantine_prefix"`
}

// PipelineConfig holds operator-tunable pipeline parameters.
type PipelineConfig struct {
	// ChunkThreshold is the file size (e.g. "1GB", "500MB") at or above
	// which the input is processed in fixed-size row batches instead of
	// a single whole-file batch.
	ChunkThreshold string `mapstructure:"chunk_threshold"`

	// BatchSize is the number of rows per batch in chunked mode.
	BatchSize int `mapstructure:"batch_size"`

	// CostRatio is the assumed cost of goods as a fraction of the
	// original price, used for profit calculation. A value outside
	// [0, 1] disables profit calculation (profit loads as NULL).
	CostRatio float64 `mapstructure:"cost_ratio"`

	// OperationTimeout bounds individual storage and warehouse calls,
	// in seconds.
	OperationTimeout int `mapstructure:"operation_timeout"`
}

// GenerateConfig holds configuration for sample data generation.
type GenerateConfig struct {
	// Rows is the number of sales records to generate.
	Rows int `mapstructure:"rows"`

	// InvalidRate is the fraction of generated rows deliberately
	// violating the schema, for exercising the quarantine path.
	InvalidRate float64 `mapstructure:"invalid_rate"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Endpoint:         "localhost:9000",
			Bucket:           "data-platform",
			RawPrefix:        "raw/",
			ProcessedPrefix:  "processed/",
			QuarantinePrefix: "quarantine/",
		},
		Pipeline: PipelineConfig{
			ChunkThreshold:   "1GB",
			BatchSize:        10000,
			CostRatio:        0.60,
			OperationTimeout: 300,
		},
		Generate: GenerateConfig{
			Rows:        1000,
			InvalidRate: 0.0,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./sales-etl.yaml
// 3. ~/.config/sales-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("sales-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "sales-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration shared by all commands.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if _, err := ParseSize(c.Pipeline.ChunkThreshold); err != nil {
		return fmt.Errorf("invalid chunk_threshold: %w", err)
	}
	if c.Pipeline.OperationTimeout < 1 {
		return fmt.Errorf("operation_timeout must be at least 1 second")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.Rows < 1 {
		return fmt.Errorf("rows must be at least 1")
	}
	if c.Generate.InvalidRate < 0 || c.Generate.InvalidRate > 1 {
		return fmt.Errorf("invalid_rate must be between 0 and 1")
	}
	return nil
}

// ParseSize converts a size string (e.g. "1GB", "500MB") to bytes.
func ParseSize(s string) (int64, error) {
	var value float64
	var unit string

	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f%s", &value, &unit)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s", s)
	}

	var multiplier int64
	switch unit {
	case "B", "b":
		multiplier = 1
	case "KB", "kb", "K", "k":
		multiplier = 1024
	case "MB", "mb", "M", "m":
		multiplier = 1024 * 1024
	case "GB", "gb", "G", "g":
		multiplier = 1024 * 1024 * 1024
	case "TB", "tb", "T", "t":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size unit: %s", unit)
	}

	return int64(value * float64(multiplier)), nil
}
