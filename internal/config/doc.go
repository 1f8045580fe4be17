// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package config loads filmgraph configuration with Koanf v2.

Sources are layered: struct defaults, then an optional YAML file (the
--config flag, CONFIG_PATH, or config.yaml / /etc/filmgraph/config.yaml),
then environment variables. Only mapped environment variables are read.

# Sections

  - database: DuckDB file path, memory limit, threads, query timeout
  - logging: level, format, caller
  - recommend: every scoring knob (ratings, similarity, normalize, time,
    limits) plus batch_concurrency for multi-user CLI runs
  - server: HTTP listen address, timeouts, CORS origins, rate limiting
  - supervisor: suture failure threshold, decay, backoff, shutdown timeout

# Environment Variables

Database:
  - DUCKDB_PATH (default: /data/filmgraph.duckdb)
  - DUCKDB_MAX_MEMORY (default: 1GB)
  - DUCKDB_THREADS (default: 0 = NumCPU)
  - DUCKDB_QUERY_TIMEOUT (default: 30s)
  - DUCKDB_CHECKPOINT_INTERVAL (default: 5m, 0 disables)

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:3857)
  - HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - CORS_ORIGINS (comma separated)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Recommendation engine:
  - RECOMMEND_SIMILARITY_PRIOR, RECOMMEND_SIMILARITY_K
  - RECOMMEND_HALF_LIFE_YEARS, RECOMMEND_TIME_MIN_WEIGHT, RECOMMEND_REFERENCE_YEAR
  - RECOMMEND_NORMALIZE_ENABLED and the *_COEF weights
  - see envMappings for the full list

# Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    return err
	}
	db, err := database.New(&cfg.Database)
*/
package config
