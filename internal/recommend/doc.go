// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

// Package recommend implements social film recommendations.
//
// # Architecture
//
// A root user's recommendations are built from the films watched, rated and
// watchlisted by the people they follow:
//
//   - Similarity: Jaccard overlap of watched films plus rating agreement in
//     z-score units, shrunk toward a prior, min-max normalized across the
//     followee batch and combined as (jaccard * rating)^2
//   - Interaction weight: a rating's z-score against the rater's own history
//     mapped onto configured negative/positive bands
//   - Time decay: exponential half-life on release year
//   - Aggregation: per film sum of similarity * weight * time, either
//     directly (multiplicative) or with interaction weights z-scored across
//     the batch (normalized)
//
// The root's own watchlist contributes through the RootWatchlist contributor
// with Config.Similarity.SelfWeight as its similarity.
//
// # Design Principles
//
//   - Stateless: every call recomputes from the Store; nothing is cached
//   - Deterministic: the current year comes from config or an injected clock
//   - Explainable: every score decomposes into Contribution rows
//
// # Usage
//
//	engine, err := recommend.NewEngine(db, recommend.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    Username:   "alice",
//	    Limit:      25,
//	    ExplainTop: 5,
//	})
//
// # Thread Safety
//
// The engine holds only immutable configuration and atomic counters, so
// concurrent calls for the same or different users are safe.
package recommend
