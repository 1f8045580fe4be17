// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package metrics provides Prometheus instrumentation for filmgraph.

All collectors are registered with the default registry through promauto
and exposed at /metrics by the API router:

	curl http://localhost:3857/metrics

Database:
  - filmgraph_db_query_duration_seconds{operation,table}
  - filmgraph_db_query_errors_total{operation,table,error_type}
  - filmgraph_db_rows_ingested_total{table}

Scoring:
  - filmgraph_scoring_duration_seconds{operation,mode}
  - filmgraph_scoring_errors_total{operation}
  - filmgraph_scored_films
  - filmgraph_followees_considered

API:
  - filmgraph_api_requests_total{method,endpoint,status_code}
  - filmgraph_api_request_duration_seconds{method,endpoint}
  - filmgraph_api_active_requests
  - filmgraph_api_rate_limit_hits_total{endpoint}

Endpoint labels use the chi route pattern, not the raw path, so usernames
never become label values.
*/
package metrics
