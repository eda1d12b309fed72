// Package config defines process configuration and its layered loading.
package config

import "enduro/internal/engine"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DatabasePath locates the sqlite file holding all athlete data.
	DatabasePath string `koanf:"database_path"`

	// AthleteID is the default athlete commands operate on.
	AthleteID string `koanf:"athlete_id"`

	// HorizonWeeks stands in for race proximity when no race is scheduled.
	HorizonWeeks int `koanf:"horizon_weeks"`

	// OutcomeCompletionWeight and OutcomeEffortWeight blend week-outcome
	// scoring between session completion and reported effort.
	OutcomeCompletionWeight float64 `koanf:"outcome_completion_weight"`
	OutcomeEffortWeight     float64 `koanf:"outcome_effort_weight"`

	// DefaultTempC and DefaultHumidityPct feed simulations when no
	// weather source is configured or the lookup fails.
	DefaultTempC       float64 `koanf:"default_temp_c"`
	DefaultHumidityPct float64 `koanf:"default_humidity_pct"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		DatabasePath:            "enduro.db",
		AthleteID:               "default",
		HorizonWeeks:            engine.DefaultRaceHorizonWeeks,
		OutcomeCompletionWeight: engine.OutcomeCompletionWeight,
		OutcomeEffortWeight:     engine.OutcomeEffortWeight,
		DefaultTempC:            20,
		DefaultHumidityPct:      50,
	}
}
