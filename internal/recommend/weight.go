// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

// Rating scale boundaries used when a rater has no usable history.
const (
	ratingScaleMin     = 0.5
	ratingNegativeTop  = 2.5
	ratingPositiveLow  = 3.0
	ratingScaleMax     = 5.0
	ratingZClip        = 2.0
	agreementDiffRange = 5.0
)

// InteractionInput is one user's interaction with one film as seen by the weighter.
type InteractionInput struct {
	Watched   bool
	Watchlist bool
	Rating    *float64

	// Stats is the rater's own rating distribution; nil when unknown.
	Stats *RatingStats
}

// InteractionWeight returns a signed preference weight for in.
// Zero means the row carries no signal and is excluded from scoring.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (c RatingConfig) InteractionWeight(in InteractionInput) float64 {
	switch {
	case in.Watched && in.Rating == nil:
		return c.Unrated
	case in.Watched:
		if in.Stats != nil {
			if z, ok := in.Stats.ZScore(*in.Rating); ok {
				return c.fromZ(z)
			}
		}
		return c.fromAbsolute(*in.Rating)
	case in.Watchlist:
		return c.WatchlistWeight()
	default:
		return 0
	}
}

// WatchlistWeight is the weight of a watchlisted, unwatched film.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (c RatingConfig) WatchlistWeight() float64 {
	return c.Unrated * c.WatchlistMultiplier
}

//nolint:gocritic // value receiver is intentional for immutable semantics
func (c RatingConfig) fromZ(z float64) float64 {
	z = clamp(z, -ratingZClip, ratingZClip)
	if z <= 0 {
		return scale(z, -ratingZClip, 0, c.NegativeMin, c.NegativeMax)
	}
	return scale(z, 0, ratingZClip, c.PositiveMin, c.PositiveMax)
}

// fromAbsolute places a raw rating in the negative or positive band by its
// position on the rating scale. Ratings between the bands carry no signal.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (c RatingConfig) fromAbsolute(rating float64) float64 {
	switch {
	case rating <= ratingNegativeTop:
		return scale(rating, ratingScaleMin, ratingNegativeTop, c.NegativeMin, c.NegativeMax)
	case rating >= ratingPositiveLow:
		return scale(rating, ratingPositiveLow, ratingScaleMax, c.PositiveMin, c.PositiveMax)
	default:
		return 0
	}
}
