// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package database is the DuckDB-backed interaction store.

DB implements recommend.Store for the scoring engine and offers merge-style
upserts for ingest. The schema has four tables:

  - users: id, username (unique), display name, profile counts
  - films: id, slug (unique), title, year, genres
  - interactions: one row per (user, film) with rating, liked, watched,
    watchlist and watch date
  - graph_edges: src follows dst, with BFS depth from the crawl root

Re-ingesting merges rather than replaces. A null rating or watch date keeps
the stored value, the liked/watched/watchlist flags only ever turn on, and a
repeated follow edge keeps the smaller depth.

Every query is bounded by DatabaseConfig.QueryTimeout unless the caller's
context already carries a deadline, and is timed into the
filmgraph_db_query_duration_seconds histogram.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	if _, err := db.LoadDumpFile(ctx, "dump.json"); err != nil {
	    return err
	}
	engine, err := recommend.NewEngine(db, engineCfg, logger)
*/
package database
