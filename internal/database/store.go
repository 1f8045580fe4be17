// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/filmgraph/internal/recommend"
)

// UserByName resolves a username to its user row.
func (db *DB) UserByName(ctx context.Context, username string) (user recommend.User, err error) {
	defer db.observe("select", "users", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var displayName sql.NullString
	var watched sql.NullInt64
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, username, display_name, watched_count
		FROM users
		WHERE username = ?`, username).Scan(&user.ID, &user.Username, &displayName, &watched)
	if errors.Is(err, sql.ErrNoRows) {
		return recommend.User{}, fmt.Errorf("user %q: %w", username, recommend.ErrUserNotFound)
	}
	if err != nil {
		return recommend.User{}, fmt.Errorf("query user: %w", err)
	}
	user.DisplayName = displayName.String
	user.WatchedCount = nullIntPtr(watched)
	return user, nil
}

// UserNames returns the users with the given ids.
func (db *DB) UserNames(ctx context.Context, ids []int) (users map[int]recommend.User, err error) {
	users = make(map[int]recommend.User, len(ids))
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return users, nil
	}
	defer db.observe("select", "users", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	placeholders, args := inClause(ids)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, username, display_name, watched_count
		FROM users
		WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u recommend.User
		var displayName sql.NullString
		var watched sql.NullInt64
		if err = rows.Scan(&u.ID, &u.Username, &displayName, &watched); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.DisplayName = displayName.String
		u.WatchedCount = nullIntPtr(watched)
		users[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// SocialRows lists every followee interaction that is watched or
// watchlisted on a film the root has not watched.
func (db *DB) SocialRows(ctx context.Context, rootID int) (out []recommend.SocialRow, err error) {
	defer db.observe("select", "interactions", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.id, f.title, f.year, f.genres,
		       i.user_id, i.watched, i.watchlist, i.rating, u.watched_count
		FROM graph_edges g
		JOIN interactions i ON i.user_id = g.dst_user_id
		JOIN films f ON f.id = i.film_id
		JOIN users u ON u.id = i.user_id
		WHERE g.src_user_id = ?
		  AND g.dst_user_id <> ?
		  AND (i.watched OR i.watchlist)
		  AND NOT EXISTS (
		      SELECT 1 FROM interactions ri
		      WHERE ri.user_id = ? AND ri.film_id = i.film_id AND ri.watched
		  )
		ORDER BY f.id, i.user_id`, rootID, rootID, rootID)
	if err != nil {
		return nil, fmt.Errorf("query social rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row recommend.SocialRow
		var year, watched sql.NullInt64
		var genres sql.NullString
		var rating sql.NullFloat64
		if err = rows.Scan(&row.Film.ID, &row.Film.Title, &year, &genres,
			&row.FolloweeID, &row.Watched, &row.Watchlist, &rating, &watched); err != nil {
			return nil, fmt.Errorf("scan social row: %w", err)
		}
		row.Film.Year = nullIntPtr(year)
		row.Film.Genres = genres.String
		row.Rating = nullFloatPtr(rating)
		row.FolloweeWatchedCount = nullIntPtr(watched)
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate social rows: %w", err)
	}
	return out, nil
}

// SimilarityRows returns one row per followee sharing at least one watched
// film with the root. Followees without overlap are left out and score with
// the engine's default similarity.
func (db *DB) SimilarityRows(ctx context.Context, rootID int) (out []recommend.SimilarityRow, err error) {
	defer db.observe("select", "interactions", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		WITH shared AS (
		    SELECT i2.user_id, i1.rating AS root_rating, i2.rating AS followee_rating
		    FROM interactions i1
		    JOIN interactions i2 ON i2.film_id = i1.film_id
		    WHERE i1.user_id = ? AND i1.watched AND i2.watched
		)
		SELECT g.dst_user_id,
		       COUNT(s.user_id) AS overlap,
		       COUNT(CASE WHEN s.root_rating IS NOT NULL AND s.followee_rating IS NOT NULL THEN 1 END) AS rated_overlap,
		       AVG(CASE WHEN s.root_rating IS NOT NULL AND s.followee_rating IS NOT NULL
		                THEN ABS(s.root_rating - s.followee_rating) END) AS avg_diff
		FROM graph_edges g
		JOIN shared s ON s.user_id = g.dst_user_id
		WHERE g.src_user_id = ? AND g.dst_user_id <> ?
		GROUP BY g.dst_user_id
		ORDER BY g.dst_user_id`, rootID, rootID, rootID)
	if err != nil {
		return nil, fmt.Errorf("query similarity rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row recommend.SimilarityRow
		var avgDiff sql.NullFloat64
		if err = rows.Scan(&row.FolloweeID, &row.Overlap, &row.RatedOverlap, &avgDiff); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		row.AvgAbsRatingDiff = nullFloatPtr(avgDiff)
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity rows: %w", err)
	}
	return out, nil
}

// WatchedCount prefers the profile total and falls back to counting
// watched interactions.
func (db *DB) WatchedCount(ctx context.Context, userID int) (int, error) {
	counts, err := db.FolloweeWatchedCounts(ctx, []int{userID})
	if err != nil {
		return 0, err
	}
	return counts[userID], nil
}

// FolloweeWatchedCounts returns watched totals for the given users. The
// stored profile count wins over the interaction count when present.
func (db *DB) FolloweeWatchedCounts(ctx context.Context, ids []int) (counts map[int]int, err error) {
	counts = make(map[int]int, len(ids))
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return counts, nil
	}
	defer db.observe("select", "users", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	placeholders, args := inClause(ids)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.id,
		       COALESCE(u.watched_count,
		                (SELECT COUNT(*) FROM interactions i WHERE i.user_id = u.id AND i.watched)) AS watched
		FROM users u
		WHERE u.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query watched counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int
		if err = rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan watched count: %w", err)
		}
		counts[id] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watched counts: %w", err)
	}
	return counts, nil
}

// RatingStats returns the population mean and standard deviation of each
// user's ratings. Users with fewer than two ratings or zero spread are omitted.
func (db *DB) RatingStats(ctx context.Context, ids []int) (stats map[int]recommend.RatingStats, err error) {
	stats = make(map[int]recommend.RatingStats, len(ids))
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return stats, nil
	}
	defer db.observe("select", "interactions", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	placeholders, args := inClause(ids)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, AVG(rating), STDDEV_POP(rating)
		FROM interactions
		WHERE rating IS NOT NULL AND user_id IN (`+placeholders+`)
		GROUP BY user_id
		HAVING COUNT(rating) >= 2`, args...)
	if err != nil {
		return nil, fmt.Errorf("query rating stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var mean, std float64
		if err = rows.Scan(&id, &mean, &std); err != nil {
			return nil, fmt.Errorf("scan rating stats: %w", err)
		}
		if std <= 0 {
			continue
		}
		stats[id] = recommend.RatingStats{Mean: mean, Std: std}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating stats: %w", err)
	}
	return stats, nil
}

// SharedRatings lists (followee, root rating, followee rating) for films
// both sides watched and rated.
func (db *DB) SharedRatings(ctx context.Context, rootID int, followeeIDs []int) (out []recommend.SharedRating, err error) {
	followeeIDs = dedupeIDs(followeeIDs)
	if len(followeeIDs) == 0 {
		return nil, nil
	}
	defer db.observe("select", "interactions", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	placeholders, args := inClause(followeeIDs)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT i2.user_id, i1.rating, i2.rating
		FROM interactions i1
		JOIN interactions i2 ON i2.film_id = i1.film_id
		WHERE i1.user_id = ?
		  AND i2.user_id IN (`+placeholders+`)
		  AND i1.watched AND i2.watched
		  AND i1.rating IS NOT NULL AND i2.rating IS NOT NULL
		ORDER BY i2.user_id, i1.film_id`, append([]any{rootID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query shared ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r recommend.SharedRating
		if err = rows.Scan(&r.FolloweeID, &r.RootRating, &r.FolloweeRating); err != nil {
			return nil, fmt.Errorf("scan shared rating: %w", err)
		}
		out = append(out, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared ratings: %w", err)
	}
	return out, nil
}

// RootWatchlist lists films on the user's watchlist that they have not watched.
func (db *DB) RootWatchlist(ctx context.Context, rootID int) (out []recommend.Film, err error) {
	defer db.observe("select", "interactions", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.id, f.title, f.year, f.genres
		FROM interactions i
		JOIN films f ON f.id = i.film_id
		WHERE i.user_id = ? AND i.watchlist AND NOT i.watched
		ORDER BY f.id`, rootID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, scanErr := scanFilm(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		out = append(out, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}
	return out, nil
}

// SharedRatedFilms lists films both users watched and rated, with metadata.
func (db *DB) SharedRatedFilms(ctx context.Context, rootID, followeeID int) (out []recommend.SharedRatedFilm, err error) {
	defer db.observe("select", "interactions", time.Now(), &err)
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.id, f.title, f.year, f.genres, i1.rating, i2.rating
		FROM interactions i1
		JOIN interactions i2 ON i2.film_id = i1.film_id
		JOIN films f ON f.id = i1.film_id
		WHERE i1.user_id = ? AND i2.user_id = ?
		  AND i1.watched AND i2.watched
		  AND i1.rating IS NOT NULL AND i2.rating IS NOT NULL
		ORDER BY f.id`, rootID, followeeID)
	if err != nil {
		return nil, fmt.Errorf("query shared rated films: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s recommend.SharedRatedFilm
		var year sql.NullInt64
		var genres sql.NullString
		if err = rows.Scan(&s.Film.ID, &s.Film.Title, &year, &genres, &s.RootRating, &s.FolloweeRating); err != nil {
			return nil, fmt.Errorf("scan shared rated film: %w", err)
		}
		s.Film.Year = nullIntPtr(year)
		s.Film.Genres = genres.String
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared rated films: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFilm(s rowScanner) (recommend.Film, error) {
	var f recommend.Film
	var year sql.NullInt64
	var genres sql.NullString
	if err := s.Scan(&f.ID, &f.Title, &year, &genres); err != nil {
		return recommend.Film{}, fmt.Errorf("scan film: %w", err)
	}
	f.Year = nullIntPtr(year)
	f.Genres = genres.String
	return f, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
