// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package api serves the recommendation engine over HTTP using chi.

# Endpoints

	GET /api/v1/users/{username}/similarities
	GET /api/v1/users/{username}/similarities/{followee}/explain?limit=
	GET /api/v1/users/{username}/recommendations?limit=&order=&mode=&explain_top=
	GET /api/v1/users/{username}/contributions?film_ids=1,2,3&mode=
	GET /api/v1/health, /api/v1/health/live, /api/v1/health/ready
	GET /metrics

Every JSON body uses the APIResponse envelope. Unknown users answer 404
NOT_FOUND, malformed parameters 400 VALIDATION_ERROR, and store timeouts
504 TIMEOUT.

# Middleware

Global: request id, real IP, panic recovery, CORS, Prometheus metrics.
Scoring routes add per-IP rate limiting (httprate), a request deadline
and gzip compression.
*/
package api
