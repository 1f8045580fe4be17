// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import "math"

// RatingStats holds a user's rating mean and population standard deviation.
// Stores only report stats for users with at least two ratings.
type RatingStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// ZScore expresses rating in standard deviations from the user's own mean.
// The second return is false when the spread is zero.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (s RatingStats) ZScore(rating float64) (float64, bool) {
	if s.Std == 0 {
		return 0, false
	}
	return (rating - s.Mean) / s.Std, true
}

// ratingZ looks up userID's stats and standardizes rating against them.
func ratingZ(stats map[int]RatingStats, userID int, rating float64) (float64, bool) {
	s, ok := stats[userID]
	if !ok {
		return 0, false
	}
	return s.ZScore(rating)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// scale maps v from [inMin, inMax] onto [outMin, outMax], clamping the
// position to the input range. A degenerate input range yields outMin.
func scale(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	ratio := clamp((v-inMin)/(inMax-inMin), 0, 1)
	return outMin + (outMax-outMin)*ratio
}

// minMax rescales values to [0, 1] relative to the batch.
// When every value is equal the result is all zeros.
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

// zScores standardizes values against the batch mean and population
// standard deviation. Zero spread yields all zeros.
func zScores(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / n)
	if std == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// shrink blends an observed agreement toward prior with k pseudo-observations.
func shrink(n int, observed, prior, k float64) float64 {
	if n <= 0 {
		return prior
	}
	return (float64(n)*observed + k*prior) / (float64(n) + k)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
