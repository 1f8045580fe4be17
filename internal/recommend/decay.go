// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import "math"

// MissingYearWeight is the recency multiplier for films without a release year.
const MissingYearWeight = 0.75

// TimeWeight maps a release year to a recency multiplier in [minWeight, 1].
//
// Releases in or after currentYear get 1.0. Older releases decay by half
// every halfLifeYears (floored at one year) and never drop below minWeight.
// A nil year gets MissingYearWeight.
func TimeWeight(year *int, currentYear int, minWeight float64, halfLifeYears int) float64 {
	if year == nil {
		return MissingYearWeight
	}
	if *year >= currentYear {
		return 1.0
	}
	age := max(0, currentYear-*year)
	halfLife := max(halfLifeYears, 1)
	return math.Max(minWeight, math.Pow(0.5, float64(age)/float64(halfLife)))
}

// timeWeight applies the configured decay to year.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (c TimeConfig) timeWeight(year *int, currentYear int) float64 {
	return TimeWeight(year, currentYear, c.MinWeight, c.HalfLifeYears)
}
