// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after LoadWithKoanf() and safe for concurrent reads.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Logging    LoggingConfig    `koanf:"logging"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Server     ServerConfig     `koanf:"server"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path                   string        `koanf:"path"`
	MaxMemory              string        `koanf:"max_memory"`
	Threads                int           `koanf:"threads"`                  // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool          `koanf:"preserve_insertion_order"` // Whether to preserve insertion order (default true)
	QueryTimeout           time.Duration `koanf:"query_timeout"`            // Per-query deadline applied by the store

	// CheckpointInterval is how often `serve` flushes the WAL. 0 disables it.
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds every scoring knob of the recommendation engine.
// The engine receives these through cmd/filmgraph, which converts them into
// recommend.Config and lets the engine validate the combined result.
type RecommendConfig struct {
	Ratings    RatingsConfig    `koanf:"ratings"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Normalize  NormalizeConfig  `koanf:"normalize"`
	Time       TimeConfig       `koanf:"time"`
	Limits     LimitsConfig     `koanf:"limits"`

	// BatchConcurrency bounds concurrent roots when scoring several users.
	// Default: 4
	BatchConcurrency int `koanf:"batch_concurrency"`
}

// RatingsConfig maps ratings and presence flags to interaction weights.
type RatingsConfig struct {
	NegativeMin         float64 `koanf:"negative_min"`
	NegativeMax         float64 `koanf:"negative_max"`
	PositiveMin         float64 `koanf:"positive_min"`
	PositiveMax         float64 `koanf:"positive_max"`
	Unrated             float64 `koanf:"unrated"`
	WatchlistMultiplier float64 `koanf:"watchlist_multiplier"`
}

// SimilarityConfig tunes the followee similarity estimator.
type SimilarityConfig struct {
	Prior             float64 `koanf:"prior"`
	K                 float64 `koanf:"k"`
	DefaultSimilarity float64 `koanf:"default_similarity"`
	NormalizeTop      bool    `koanf:"normalize_top"`

	// SelfWeight is the similarity given to the root's own watchlist.
	SelfWeight float64 `koanf:"self_weight"`
}

// NormalizeConfig tunes normalized aggregation.
type NormalizeConfig struct {
	Enabled         bool    `koanf:"enabled"`
	SimilarityCoef  float64 `koanf:"similarity_coef"`
	InteractionCoef float64 `koanf:"interaction_coef"`
	TimeCoef        float64 `koanf:"time_coef"`
}

// TimeConfig tunes release-year decay.
type TimeConfig struct {
	MinWeight     float64 `koanf:"min_weight"`
	HalfLifeYears int     `koanf:"half_life_years"`

	// ReferenceYear pins "now" for reproducible runs. 0 uses the clock.
	ReferenceYear int `koanf:"reference_year"`
}

// LimitsConfig bounds result sizes.
type LimitsConfig struct {
	DefaultLimit        int `koanf:"default_limit"`
	MaxLimit            int `koanf:"max_limit"`
	ExplainContributors int `koanf:"explain_contributors"`
	DisagreementLimit   int `koanf:"disagreement_limit"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
