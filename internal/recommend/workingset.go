// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"context"
	"fmt"
	"strconv"
)

// workingSet is everything fetched from the store for one root user.
// It is built per call and never shared.
type workingSet struct {
	root        User
	currentYear int

	// similarities is in store row order.
	similarities []SimilarityScore
	simMap       map[int]float64
	names        map[int]User

	social    []SocialRow
	watchlist []Film
	stats     map[int]RatingStats
}

func (ws *workingSet) username(id int) string {
	if u, ok := ws.names[id]; ok && u.Username != "" {
		return u.Username
	}
	return strconv.Itoa(id)
}

// load issues the store queries for username. withSocial adds the candidate
// rows and the root's watchlist needed for scoring.
func (e *Engine) load(ctx context.Context, username string, withSocial bool) (*workingSet, error) {
	root, err := e.store.UserByName(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}

	simRows, err := e.store.SimilarityRows(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("get similarity rows: %w", err)
	}
	rootWatched, err := e.store.WatchedCount(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("get watched count: %w", err)
	}

	ws := &workingSet{
		root:        root,
		currentYear: e.CurrentYear(),
	}

	if withSocial {
		if ws.social, err = e.store.SocialRows(ctx, root.ID); err != nil {
			return nil, fmt.Errorf("get social rows: %w", err)
		}
		if ws.watchlist, err = e.store.RootWatchlist(ctx, root.ID); err != nil {
			return nil, fmt.Errorf("get watchlist: %w", err)
		}
	}

	followeeIDs := make([]int, 0, len(simRows))
	for _, row := range simRows {
		followeeIDs = append(followeeIDs, row.FolloweeID)
	}
	ids := unionIDs(followeeIDs, ws.social)

	followeeWatched := map[int]int{}
	var shared []SharedRating
	if len(followeeIDs) > 0 {
		if followeeWatched, err = e.store.FolloweeWatchedCounts(ctx, followeeIDs); err != nil {
			return nil, fmt.Errorf("get followee watched counts: %w", err)
		}
		if shared, err = e.store.SharedRatings(ctx, root.ID, followeeIDs); err != nil {
			return nil, fmt.Errorf("get shared ratings: %w", err)
		}
	}

	ws.names = map[int]User{}
	if len(ids) > 0 {
		if ws.names, err = e.store.UserNames(ctx, ids); err != nil {
			return nil, fmt.Errorf("get user names: %w", err)
		}
	}
	if ws.stats, err = e.store.RatingStats(ctx, append([]int{root.ID}, ids...)); err != nil {
		return nil, fmt.Errorf("get rating stats: %w", err)
	}

	ws.similarities = estimateSimilarity(&similarityInput{
		rootID:          root.ID,
		rootWatched:     rootWatched,
		rows:            simRows,
		followeeWatched: followeeWatched,
		stats:           ws.stats,
		shared:          shared,
		names:           ws.names,
	}, e.config.Similarity)
	ws.simMap = similarityMap(ws.similarities)
	return ws, nil
}

// unionIDs returns followeeIDs followed by any other contributor ids found
// in the social rows, without duplicates.
func unionIDs(followeeIDs []int, social []SocialRow) []int {
	seen := make(map[int]struct{}, len(followeeIDs))
	out := make([]int, 0, len(followeeIDs))
	for _, id := range followeeIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for i := range social {
		id := social[i].FolloweeID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
