// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

// Package main is the filmgraph command.
//
// filmgraph scores films for a user from the ratings, watches and
// watchlists of the people they follow. Data is loaded from JSON dumps
// into an embedded DuckDB file and scored on demand, either from the
// command line or through the HTTP API started by `filmgraph serve`.
//
// # Commands
//
//	filmgraph load dump.json              # ingest users, films, interactions, follows
//	filmgraph recs alice bob --limit 20   # ranked recommendations (JSON)
//	filmgraph similarities alice          # followees by taste similarity
//	filmgraph explain alice bob           # films alice and bob disagree on
//	filmgraph contributions alice --film-ids 10,12
//	filmgraph serve                       # HTTP API under a suture supervisor
//
// Results go to stdout as JSON; logs go to stderr.
//
// # Configuration
//
// Settings come from built-in defaults, an optional YAML file (--config or
// CONFIG_PATH) and environment variables, in that order. --db overrides
// DUCKDB_PATH.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
