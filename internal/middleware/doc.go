// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package middleware provides HTTP middleware for the filmgraph API.

All middleware uses the chi signature func(http.Handler) http.Handler and is
installed with r.Use in internal/api:

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled
    by chi route pattern
  - Compression: gzip for clients sending Accept-Encoding: gzip

Example:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)
*/
package middleware
