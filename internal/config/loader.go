package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ENDURO_CONFIG is set
//  3. env (prefix ENDURO_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ENDURO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: ENDURO_DATABASE_PATH, ENDURO_LOG_LEVEL, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("ENDURO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "enduro_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.AthleteID == "" {
		return errors.New("athlete_id must not be empty")
	}
	if c.HorizonWeeks <= 0 {
		return fmt.Errorf("horizon_weeks must be positive, got %d", c.HorizonWeeks)
	}
	if c.OutcomeCompletionWeight < 0 || c.OutcomeEffortWeight < 0 {
		return errors.New("outcome weights must be non-negative")
	}
	if sum := c.OutcomeCompletionWeight + c.OutcomeEffortWeight; sum <= 0 {
		return fmt.Errorf("outcome weights must sum to a positive value, got %v", sum)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
