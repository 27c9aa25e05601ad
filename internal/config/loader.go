package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if EMPATH_CONFIG is set
//  3. env (prefix EMPATH_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("EMPATH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: EMPATH_DATA_DIR, EMPATH_WORKER_COUNT, ...
	// Map env keys like EMPATH_DATA_DIR -> data_dir (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("EMPATH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "empath_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values that must hold before processing starts.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.AssetsDir == "" {
		return fmt.Errorf("%w: assets_dir must not be empty", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if c.RatingsTable == "" || c.DurationsTable == "" {
		return fmt.Errorf("%w: reference table names must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	}
	if c.RunsPerSubject < 1 {
		return fmt.Errorf("%w: runs_per_subject must be at least 1", ErrInvalidConfig)
	}
	return nil
}
