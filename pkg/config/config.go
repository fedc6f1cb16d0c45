// Package config holds the settings of the sai query shell. Settings are kept
// in a JSON file and may be overridden from the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KevoDB/sai/pkg/common/log"
	"github.com/KevoDB/sai/pkg/primarykey"
	"github.com/KevoDB/sai/pkg/telemetry"
)

const (
	DefaultConfigFileName = "saiq.json"
	CurrentConfigVersion  = 1
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("config not found")
)

type Config struct {
	Version int `json:"version"`

	// Logging
	LogLevel string `json:"log_level"`

	// Key construction
	Partitioner string `json:"partitioner"`

	// Builder configuration
	RangeHint int `json:"range_hint"` // Expected number of ranges per union

	// Shell configuration
	HistoryFile string `json:"history_file"`

	Telemetry telemetry.Config `json:"telemetry"`

	mu sync.RWMutex
}

// NewDefaultConfig creates a Config with recommended default values
func NewDefaultConfig() *Config {
	historyFile := ".saiq_history"
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, historyFile)
	}

	return &Config{
		Version:     CurrentConfigVersion,
		LogLevel:    log.LevelInfo.String(),
		Partitioner: primarykey.PartitionerHash,
		RangeHint:   4,
		HistoryFile: historyFile,
		Telemetry:   telemetry.DefaultConfig(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.validate()
}

func (c *Config) validate() error {
	if c.Version <= 0 {
		return fmt.Errorf("%w: invalid version %d", ErrInvalidConfig, c.Version)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := primarykey.PartitionerByName(c.Partitioner); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.RangeHint < 0 {
		return fmt.Errorf("%w: range hint must not be negative", ErrInvalidConfig)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: telemetry: %v", ErrInvalidConfig, err)
	}

	return nil
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Fields absent from the file keep their defaults.
	cfg := NewDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Telemetry.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults, with
// environment overrides applied, when path is empty or does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if !errors.Is(err, ErrConfigNotFound) {
			return cfg, err
		}
	}

	cfg := NewDefaultConfig()
	cfg.Telemetry.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename config: %w", err)
	}

	return nil
}

// Update applies the given function to modify the configuration
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// Level returns the configured log level
func (c *Config) Level() log.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// KeyFactory returns a key factory for the configured partitioner
func (c *Config) KeyFactory() (*primarykey.Factory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, err := primarykey.PartitionerByName(c.Partitioner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return primarykey.NewFactory(primarykey.WithPartitioner(p)), nil
}
