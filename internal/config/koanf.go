// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/filmgraph/config.yaml",
	"/etc/filmgraph/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                   "/data/filmgraph.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
			QueryTimeout:           30 * time.Second,
			CheckpointInterval:     5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			Ratings: RatingsConfig{
				NegativeMin:         -1.0,
				NegativeMax:         -0.1,
				PositiveMin:         0.1,
				PositiveMax:         1.0,
				Unrated:             0.25,
				WatchlistMultiplier: 0.5,
			},
			Similarity: SimilarityConfig{
				Prior:             0.5,
				K:                 10,
				DefaultSimilarity: 0.5,
				NormalizeTop:      true,
				SelfWeight:        5.0,
			},
			Normalize: NormalizeConfig{
				Enabled:         true,
				SimilarityCoef:  1.0,
				InteractionCoef: 1.0,
				TimeCoef:        1.0,
			},
			Time: TimeConfig{
				MinWeight:     0.25,
				HalfLifeYears: 100,
			},
			Limits: LimitsConfig{
				DefaultLimit:        200,
				MaxLimit:            5000,
				ExplainContributors: 3,
				DisagreementLimit:   10,
			},
			BatchConcurrency: 4,
		},
		Server: ServerConfig{
			Port:              3857,
			Host:              "0.0.0.0",
			Timeout:           30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	return Load("")
}

// Load is LoadWithKoanf with an explicit config file path. An empty path
// falls back to CONFIG_PATH and DefaultConfigPaths; a non-empty path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path
	// RECOMMEND_SIMILARITY_PRIOR -> recommend.similarity.prior
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment never leaks in.
var envMappings = map[string]string{
	// Database
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"duckdb_query_timeout": "database.query_timeout",

	"duckdb_checkpoint_interval": "database.checkpoint_interval",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	// Recommendation engine
	"recommend_negative_min":         "recommend.ratings.negative_min",
	"recommend_negative_max":         "recommend.ratings.negative_max",
	"recommend_positive_min":         "recommend.ratings.positive_min",
	"recommend_positive_max":         "recommend.ratings.positive_max",
	"recommend_unrated":              "recommend.ratings.unrated",
	"recommend_watchlist_multiplier": "recommend.ratings.watchlist_multiplier",
	"recommend_similarity_prior":     "recommend.similarity.prior",
	"recommend_similarity_k":         "recommend.similarity.k",
	"recommend_default_similarity":   "recommend.similarity.default_similarity",
	"recommend_normalize_top":        "recommend.similarity.normalize_top",
	"recommend_self_weight":          "recommend.similarity.self_weight",
	"recommend_normalize_enabled":    "recommend.normalize.enabled",
	"recommend_similarity_coef":      "recommend.normalize.similarity_coef",
	"recommend_interaction_coef":     "recommend.normalize.interaction_coef",
	"recommend_time_coef":            "recommend.normalize.time_coef",
	"recommend_time_min_weight":      "recommend.time.min_weight",
	"recommend_half_life_years":      "recommend.time.half_life_years",
	"recommend_reference_year":       "recommend.time.reference_year",
	"recommend_default_limit":        "recommend.limits.default_limit",
	"recommend_max_limit":            "recommend.limits.max_limit",
	"recommend_explain_contributors": "recommend.limits.explain_contributors",
	"recommend_disagreement_limit":   "recommend.limits.disagreement_limit",
	"recommend_batch_concurrency":    "recommend.batch_concurrency",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - RECOMMEND_HALF_LIFE_YEARS -> recommend.time.half_life_years
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
