// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"math"
	"sort"
)

// ratingDiff summarizes z-score disagreement with one followee.
type ratingDiff struct {
	n   int
	avg *float64
}

// ratingDiffs averages |z_root - z_followee| per followee over shared ratings.
// Ratings whose z-score cannot be computed for either side are skipped.
func ratingDiffs(rootID int, followeeIDs []int, shared []SharedRating, stats map[int]RatingStats) map[int]ratingDiff {
	buckets := make(map[int][]float64, len(followeeIDs))
	for _, id := range followeeIDs {
		buckets[id] = nil
	}
	for _, s := range shared {
		if _, ok := buckets[s.FolloweeID]; !ok {
			continue
		}
		z1, ok1 := ratingZ(stats, rootID, s.RootRating)
		z2, ok2 := ratingZ(stats, s.FolloweeID, s.FolloweeRating)
		if !ok1 || !ok2 {
			continue
		}
		buckets[s.FolloweeID] = append(buckets[s.FolloweeID], math.Abs(z1-z2))
	}

	out := make(map[int]ratingDiff, len(buckets))
	for id, diffs := range buckets {
		if len(diffs) == 0 {
			out[id] = ratingDiff{}
			continue
		}
		avg := mean(diffs)
		out[id] = ratingDiff{n: len(diffs), avg: &avg}
	}
	return out
}

// SimilarityComponents returns the raw Jaccard overlap and the shrunk rating
// agreement between the root and one followee.
//
// Without usable rated overlap the agreement is exactly cfg.Prior.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func SimilarityComponents(overlap, rootWatched, followeeWatched, ratedOverlap int, avgDiff *float64, cfg SimilarityConfig) (jaccard, ratingShrunk float64) {
	if union := rootWatched + followeeWatched - overlap; union > 0 {
		jaccard = float64(overlap) / float64(union)
	}

	if ratedOverlap > 0 && avgDiff != nil {
		agreement := clamp(1-*avgDiff/agreementDiffRange, 0, 1)
		return jaccard, shrink(ratedOverlap, agreement, cfg.Prior, cfg.K)
	}
	return jaccard, cfg.Prior
}

// similarityInput is the store data the estimator works from.
type similarityInput struct {
	rootID          int
	rootWatched     int
	rows            []SimilarityRow
	followeeWatched map[int]int
	stats           map[int]RatingStats
	shared          []SharedRating
	names           map[int]User
}

// estimateSimilarity scores every followee in in.rows, preserving row order.
// Both components are min-max normalized across the batch and combined as
// (jaccard * rating)^2.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func estimateSimilarity(in *similarityInput, cfg SimilarityConfig) []SimilarityScore {
	if len(in.rows) == 0 {
		return []SimilarityScore{}
	}

	ids := make([]int, len(in.rows))
	for i, row := range in.rows {
		ids[i] = row.FolloweeID
	}
	diffs := ratingDiffs(in.rootID, ids, in.shared, in.stats)

	jaccards := make([]float64, len(in.rows))
	ratings := make([]float64, len(in.rows))
	for i, row := range in.rows {
		d := diffs[row.FolloweeID]
		jaccards[i], ratings[i] = SimilarityComponents(
			row.Overlap, in.rootWatched, in.followeeWatched[row.FolloweeID], d.n, d.avg, cfg)
	}
	jaccardNorm := minMax(jaccards)
	ratingNorm := minMax(ratings)

	scores := make([]SimilarityScore, len(in.rows))
	top := 0.0
	for i, row := range in.rows {
		d := diffs[row.FolloweeID]
		sim := math.Pow(jaccardNorm[i]*ratingNorm[i], 2)
		top = math.Max(top, sim)
		user := in.names[row.FolloweeID]
		scores[i] = SimilarityScore{
			FolloweeID:       row.FolloweeID,
			Username:         user.Username,
			DisplayName:      user.DisplayName,
			Similarity:       sim,
			Jaccard:          jaccardNorm[i],
			RatingSimilarity: ratingNorm[i],
			Overlap:          row.Overlap,
			RatedOverlap:     d.n,
			AvgDiff:          d.avg,
		}
	}

	if cfg.NormalizeTop && top > 0 {
		for i := range scores {
			scores[i].Similarity /= top
		}
	}
	return scores
}

// similarityMap indexes scores by followee id.
func similarityMap(scores []SimilarityScore) map[int]float64 {
	m := make(map[int]float64, len(scores))
	for _, s := range scores {
		m[s.FolloweeID] = s.Similarity
	}
	return m
}

// sortSimilarities orders scores by descending similarity, stable on ties.
func sortSimilarities(scores []SimilarityScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Similarity > scores[j].Similarity
	})
}
