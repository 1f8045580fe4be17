// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// tableCreationQueries holds the schema. Users and films get surrogate ids
// from sequences; natural keys (username, slug) are unique.
var tableCreationQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS films_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS users (
		id              INTEGER PRIMARY KEY DEFAULT nextval('users_id_seq'),
		username        TEXT NOT NULL UNIQUE,
		display_name    TEXT,
		follower_count  INTEGER,
		following_count INTEGER,
		watched_count   INTEGER,
		fetched_at      TIMESTAMP DEFAULT current_timestamp
	)`,

	`CREATE TABLE IF NOT EXISTS films (
		id     INTEGER PRIMARY KEY DEFAULT nextval('films_id_seq'),
		slug   TEXT NOT NULL UNIQUE,
		title  TEXT NOT NULL,
		year   INTEGER,
		genres TEXT
	)`,

	// rating is on the 0.5..5.0 scale; NULL means unrated.
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id    INTEGER NOT NULL,
		film_id    INTEGER NOT NULL,
		rating     DOUBLE,
		liked      BOOLEAN NOT NULL DEFAULT false,
		watched    BOOLEAN NOT NULL DEFAULT false,
		watchlist  BOOLEAN NOT NULL DEFAULT false,
		watch_date DATE,
		PRIMARY KEY (user_id, film_id)
	)`,

	// src follows dst. depth is the BFS distance from the crawl root.
	`CREATE TABLE IF NOT EXISTS graph_edges (
		src_user_id INTEGER NOT NULL,
		dst_user_id INTEGER NOT NULL,
		depth       INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (src_user_id, dst_user_id)
	)`,
}

var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_interactions_film ON interactions(film_id)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_edges_dst ON graph_edges(dst_user_id)`,
}

// createTables creates the core database tables
func (db *DB) createTables(ctx context.Context) error {
	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %s: %w", query, err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes used by the scoring queries.
func (db *DB) createIndexes(ctx context.Context) error {
	for _, query := range indexCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
