// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned (wrapped) by stores for unknown usernames.
var ErrUserNotFound = errors.New("user not found")

// SocialRow is a followee's watched or watchlisted film that the root has not watched.
type SocialRow struct {
	Film       Film
	FolloweeID int

	Watched   bool
	Watchlist bool
	Rating    *float64

	FolloweeWatchedCount *int
}

// SimilarityRow holds the raw overlap signals between the root and one followee.
type SimilarityRow struct {
	FolloweeID   int
	Overlap      int
	RatedOverlap int

	// AvgAbsRatingDiff is the mean raw rating gap; nil without rated overlap.
	AvgAbsRatingDiff *float64
}

// SharedRating is one film both the root and a followee watched and rated.
type SharedRating struct {
	FolloweeID     int
	RootRating     float64
	FolloweeRating float64
}

// SharedRatedFilm is a SharedRating with film metadata, for explanations.
type SharedRatedFilm struct {
	Film           Film
	RootRating     float64
	FolloweeRating float64
}

// Store is the read side of the interaction store.
// This is typically implemented by the database layer.
type Store interface {
	// UserByName resolves a username. Unknown names return ErrUserNotFound.
	UserByName(ctx context.Context, username string) (User, error)

	// UserNames returns users keyed by id. Missing ids are absent.
	UserNames(ctx context.Context, ids []int) (map[int]User, error)

	// SocialRows lists followees' watched-or-watchlisted films the root has not watched.
	SocialRows(ctx context.Context, rootID int) ([]SocialRow, error)

	// SimilarityRows lists one row per followee that shares at least one
	// watched film with the root. Followees left out score with
	// SimilarityConfig.DefaultSimilarity.
	SimilarityRows(ctx context.Context, rootID int) ([]SimilarityRow, error)

	// WatchedCount returns the user's watched total.
	WatchedCount(ctx context.Context, userID int) (int, error)

	// FolloweeWatchedCounts returns watched totals keyed by user id.
	FolloweeWatchedCounts(ctx context.Context, ids []int) (map[int]int, error)

	// RatingStats returns rating mean/std for users with at least two ratings.
	RatingStats(ctx context.Context, ids []int) (map[int]RatingStats, error)

	// SharedRatings lists ratings on films both the root and each followee rated.
	SharedRatings(ctx context.Context, rootID int, followeeIDs []int) ([]SharedRating, error)

	// RootWatchlist lists the root's watchlisted films not yet watched.
	RootWatchlist(ctx context.Context, rootID int) ([]Film, error)

	// SharedRatedFilms lists films both users watched and rated.
	SharedRatedFilms(ctx context.Context, rootID, followeeID int) ([]SharedRatedFilm, error)
}
