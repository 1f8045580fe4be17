// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package services adapts filmgraph components to suture.Service.

Each wrapper implements

	type Service interface {
	    Serve(ctx context.Context) error
	}

and returns ctx.Err() on a requested shutdown so the supervisor does not
count it as a failure.

# Available Services

HTTPServerService:
  - wraps *http.Server, translating ListenAndServe into Serve
  - graceful Shutdown with a configurable drain timeout

CheckpointService:
  - periodically checkpoints the DuckDB store
  - failures are logged and retried on the next tick
*/
package services
