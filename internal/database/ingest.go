// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/filmgraph/internal/metrics"
	"github.com/tomtom215/filmgraph/internal/validation"
)

// UserRecord is an extracted profile. Nil fields leave stored values unchanged.
type UserRecord struct {
	Username       string  `json:"username" validate:"required,username,max=100"`
	DisplayName    *string `json:"display_name,omitempty"`
	FollowerCount  *int    `json:"follower_count,omitempty" validate:"omitempty,min=0"`
	FollowingCount *int    `json:"following_count,omitempty" validate:"omitempty,min=0"`
	WatchedCount   *int    `json:"watched_count,omitempty" validate:"omitempty,min=0"`
}

// FilmRecord is extracted film metadata. An empty title stores the slug.
type FilmRecord struct {
	Slug   string  `json:"slug" validate:"required,slug,max=200"`
	Title  string  `json:"title,omitempty"`
	Year   *int    `json:"year,omitempty" validate:"omitempty,min=1870,max=2200"`
	Genres *string `json:"genres,omitempty"`
}

// InteractionRecord is one user's relationship with one film.
type InteractionRecord struct {
	Rating    *float64   `json:"rating,omitempty" validate:"omitempty,gte=0.5,lte=5"`
	Liked     bool       `json:"liked,omitempty"`
	Watched   bool       `json:"watched,omitempty"`
	Watchlist bool       `json:"watchlist,omitempty"`
	WatchDate *time.Time `json:"watch_date,omitempty"`
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertUser inserts or merges a user and returns its id.
func (db *DB) UpsertUser(ctx context.Context, u UserRecord) (int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	return upsertUser(ctx, db.conn, u)
}

// UpsertFilm inserts or merges a film and returns its id.
func (db *DB) UpsertFilm(ctx context.Context, f FilmRecord) (int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	return upsertFilm(ctx, db.conn, f)
}

// UpsertInteraction merges an interaction: a null rating keeps the stored
// one, flags only ever turn on, and a null watch date keeps the stored one.
func (db *DB) UpsertInteraction(ctx context.Context, userID, filmID int, in InteractionRecord) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	return upsertInteraction(ctx, db.conn, userID, filmID, in)
}

// AddFollowEdge records that src follows dst. Re-adding keeps the
// shallower depth.
func (db *DB) AddFollowEdge(ctx context.Context, srcID, dstID, depth int) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	return addFollowEdge(ctx, db.conn, srcID, dstID, depth)
}

func upsertUser(ctx context.Context, q querier, u UserRecord) (id int, err error) {
	if verr := validation.ValidateStruct(&u); verr != nil {
		return 0, fmt.Errorf("user: %w: %w", ErrInvalidInput, verr)
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "users", time.Since(start), err) }()

	if _, err = q.ExecContext(ctx, `
		INSERT INTO users (username, display_name, follower_count, following_count, watched_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, current_timestamp)
		ON CONFLICT (username) DO UPDATE SET
			display_name = COALESCE(EXCLUDED.display_name, display_name),
			follower_count = COALESCE(EXCLUDED.follower_count, follower_count),
			following_count = COALESCE(EXCLUDED.following_count, following_count),
			watched_count = COALESCE(EXCLUDED.watched_count, watched_count),
			fetched_at = current_timestamp`,
		u.Username, nullable(u.DisplayName), nullable(u.FollowerCount), nullable(u.FollowingCount), nullable(u.WatchedCount)); err != nil {
		return 0, fmt.Errorf("upsert user %q: %w", u.Username, err)
	}
	if err = q.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, u.Username).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup user %q: %w", u.Username, err)
	}
	metrics.RecordIngest("users", 1)
	return id, nil
}

func upsertFilm(ctx context.Context, q querier, f FilmRecord) (id int, err error) {
	if verr := validation.ValidateStruct(&f); verr != nil {
		return 0, fmt.Errorf("film: %w: %w", ErrInvalidInput, verr)
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "films", time.Since(start), err) }()

	// A missing title must not overwrite a real one with the slug.
	title := f.Title
	hasTitle := title != ""
	if !hasTitle {
		title = f.Slug
	}
	if _, err = q.ExecContext(ctx, `
		INSERT INTO films (slug, title, year, genres)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			title = CASE WHEN ? THEN EXCLUDED.title ELSE title END,
			year = COALESCE(EXCLUDED.year, year),
			genres = COALESCE(EXCLUDED.genres, genres)`,
		f.Slug, title, nullable(f.Year), nullable(f.Genres), hasTitle); err != nil {
		return 0, fmt.Errorf("upsert film %q: %w", f.Slug, err)
	}
	if err = q.QueryRowContext(ctx, `SELECT id FROM films WHERE slug = ?`, f.Slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup film %q: %w", f.Slug, err)
	}
	metrics.RecordIngest("films", 1)
	return id, nil
}

func upsertInteraction(ctx context.Context, q querier, userID, filmID int, in InteractionRecord) (err error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return fmt.Errorf("interaction: %w: %w", ErrInvalidInput, verr)
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "interactions", time.Since(start), err) }()

	var watchDate any
	if in.WatchDate != nil {
		watchDate = in.WatchDate.Format(time.DateOnly)
	}
	if _, err = q.ExecContext(ctx, `
		INSERT INTO interactions (user_id, film_id, rating, liked, watched, watchlist, watch_date)
		VALUES (?, ?, ?, ?, ?, ?, CAST(? AS DATE))
		ON CONFLICT (user_id, film_id) DO UPDATE SET
			rating = COALESCE(EXCLUDED.rating, rating),
			liked = EXCLUDED.liked OR liked,
			watched = EXCLUDED.watched OR watched,
			watchlist = EXCLUDED.watchlist OR watchlist,
			watch_date = COALESCE(EXCLUDED.watch_date, watch_date)`,
		userID, filmID, nullable(in.Rating), in.Liked, in.Watched, in.Watchlist, watchDate); err != nil {
		return fmt.Errorf("upsert interaction (%d, %d): %w", userID, filmID, err)
	}
	metrics.RecordIngest("interactions", 1)
	return nil
}

func addFollowEdge(ctx context.Context, q querier, srcID, dstID, depth int) (err error) {
	if srcID == dstID {
		return fmt.Errorf("follow edge %d -> %d: %w: self edge", srcID, dstID, ErrInvalidInput)
	}
	if depth < 1 {
		depth = 1
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "graph_edges", time.Since(start), err) }()

	if _, err = q.ExecContext(ctx, `
		INSERT INTO graph_edges (src_user_id, dst_user_id, depth)
		VALUES (?, ?, ?)
		ON CONFLICT (src_user_id, dst_user_id) DO UPDATE SET
			depth = LEAST(EXCLUDED.depth, depth)`,
		srcID, dstID, depth); err != nil {
		return fmt.Errorf("add follow edge %d -> %d: %w", srcID, dstID, err)
	}
	metrics.RecordIngest("graph_edges", 1)
	return nil
}

// nullable unwraps optional fields into driver values.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
