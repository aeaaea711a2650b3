// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads omnisearch settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/omnisearch/mixer"
	"github.com/poiesic/omnisearch/scoring"
	"github.com/poiesic/omnisearch/search"
	"gopkg.in/yaml.v3"
)

// Config is the complete omnisearch configuration.
type Config struct {
	Scoring   scoring.Factors `yaml:"scoring"`
	Query     QueryConfig     `yaml:"query"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// QueryConfig tunes query controllers.
type QueryConfig struct {
	// SlowSourceTimeout is how long to wait for every source before
	// publishing partial results.
	SlowSourceTimeout time.Duration `yaml:"slow_source_timeout"`

	// MixBudget is how long a mix runs inline before continuing in the
	// background.
	MixBudget time.Duration `yaml:"mix_budget"`

	// MinMixInterval is the shortest gap between mixes once partial results
	// are being published. Zero disables rate limiting.
	MinMixInterval time.Duration `yaml:"min_mix_interval"`

	// AnnotationLimit is how many top results sources may annotate.
	AnnotationLimit int `yaml:"annotation_limit"`

	// MaxResults is the default ceiling for queries. -1 means unbounded.
	MaxResults int `yaml:"max_results"`
}

// SchedulerConfig sizes the operation scheduler.
type SchedulerConfig struct {
	// PoolSize bounds concurrently running normal class operations.
	PoolSize int `yaml:"pool_size"`
}

// StorageConfig locates the result cache and usage store.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithSlowSourceTimeout sets Query.SlowSourceTimeout.
func WithSlowSourceTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Query.SlowSourceTimeout = d
	}
}

// WithMixBudget sets Query.MixBudget.
func WithMixBudget(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Query.MixBudget = d
	}
}

// WithMaxResults sets Query.MaxResults.
func WithMaxResults(n int) ConfigOption {
	return func(c *Config) {
		c.Query.MaxResults = n
	}
}

// WithStoragePath sets where the storage lives on disk.
func WithStoragePath(path string) ConfigOption {
	return func(c *Config) {
		c.Storage.Path = path
		c.Storage.InMemory = false
	}
}

// WithInMemoryStorage keeps storage in memory only.
func WithInMemoryStorage() ConfigOption {
	return func(c *Config) {
		c.Storage.Path = ""
		c.Storage.InMemory = true
	}
}

// WithLogLevel sets Log.Level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.Log.Level = level
	}
}

// DefaultConfig returns a Config with the default scoring factors, an in
// memory store and info logging.
func DefaultConfig() *Config {
	return &Config{
		Scoring: scoring.DefaultFactors(),
		Query: QueryConfig{
			SlowSourceTimeout: search.DefaultSlowSourceTimeout,
			MixBudget:         mixer.DefaultBudget,
			MinMixInterval:    search.DefaultMinMixInterval,
			AnnotationLimit:   search.DefaultAnnotationLimit,
			MaxResults:        50,
		},
		Scheduler: SchedulerConfig{},
		Storage:   StorageConfig{InMemory: true},
		Log:       LogConfig{Level: "info"},
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Query.SlowSourceTimeout < 0 {
		errs = append(errs, fmt.Errorf("query.slow_source_timeout must be non-negative, got %s", c.Query.SlowSourceTimeout))
	}
	if c.Query.MinMixInterval < 0 {
		errs = append(errs, fmt.Errorf("query.min_mix_interval must be non-negative, got %s", c.Query.MinMixInterval))
	}
	if c.Query.AnnotationLimit < 0 {
		errs = append(errs, fmt.Errorf("query.annotation_limit must be non-negative, got %d", c.Query.AnnotationLimit))
	}
	if c.Query.MaxResults < -1 {
		errs = append(errs, fmt.Errorf("query.max_results must be -1 or more, got %d", c.Query.MaxResults))
	}
	if c.Scheduler.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("scheduler.pool_size must be non-negative, got %d", c.Scheduler.PoolSize))
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required unless storage.in_memory is set"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ApplyScoring installs the configured factors as the process-wide scoring
// factors.
func (c *Config) ApplyScoring() error {
	return scoring.SetFactors(c.Scoring)
}

// ControllerOptions returns the query controller options for c.
func (c *Config) ControllerOptions() []search.Option {
	return []search.Option{
		search.WithSlowSourceTimeout(c.Query.SlowSourceTimeout),
		search.WithMixBudget(c.Query.MixBudget),
		search.WithMinMixInterval(c.Query.MinMixInterval),
		search.WithAnnotationLimit(c.Query.AnnotationLimit),
	}
}

// SchedulerOptions returns the scheduler options for c.
func (c *Config) SchedulerOptions() []search.SchedulerOption {
	var opts []search.SchedulerOption
	if c.Scheduler.PoolSize > 0 {
		opts = append(opts, search.WithPoolSize(c.Scheduler.PoolSize))
	}
	return opts
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", level)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
