// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"fmt"
	"sort"
)

// Mode selects how per-row signals are combined into film scores.
type Mode string

const (
	// ModeMultiplicative sums similarity * weight * time per film.
	ModeMultiplicative Mode = "multiplicative"
	// ModeNormalized z-scores interaction weights across the batch first.
	ModeNormalized Mode = "normalized"
)

// ParseMode parses a mode name. The empty string is accepted as "unset".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMultiplicative, ModeNormalized:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown scoring mode %q", s)
	}
}

// ScoreRow is one contributor's signal for one film before combination.
type ScoreRow struct {
	Film        Film
	Contributor Contributor

	Similarity        float64
	InteractionWeight float64
	TimeWeight        float64

	// Set by the strategy.
	InteractionZ *float64
	Contribution float64
}

// CombineStrategy fills in Contribution for every row of a batch.
type CombineStrategy interface {
	Mode() Mode
	Combine(rows []ScoreRow)
}

// Multiplicative combines each row independently.
type Multiplicative struct{}

// Mode implements CombineStrategy.
func (Multiplicative) Mode() Mode { return ModeMultiplicative }

// Combine implements CombineStrategy.
func (Multiplicative) Combine(rows []ScoreRow) {
	for i := range rows {
		r := &rows[i]
		r.Contribution = r.Similarity * r.InteractionWeight * r.TimeWeight
	}
}

// Normalized standardizes interaction weights over the whole batch and
// scales each term by its coefficient.
type Normalized struct {
	SimilarityCoef  float64
	InteractionCoef float64
	TimeCoef        float64
}

// Mode implements CombineStrategy.
func (Normalized) Mode() Mode { return ModeNormalized }

// Combine implements CombineStrategy.
func (n Normalized) Combine(rows []ScoreRow) {
	weights := make([]float64, len(rows))
	for i := range rows {
		weights[i] = rows[i].InteractionWeight
	}
	z := zScores(weights)
	for i := range rows {
		r := &rows[i]
		zi := z[i]
		r.InteractionZ = &zi
		r.Contribution = (n.SimilarityCoef * r.Similarity) *
			(n.InteractionCoef * zi) *
			(n.TimeCoef * r.TimeWeight)
	}
}

// strategyFor returns the strategy for mode, falling back to the configured default.
func (c *Config) strategyFor(mode Mode) CombineStrategy {
	if mode == "" {
		mode = c.DefaultMode()
	}
	if mode == ModeNormalized {
		return Normalized{
			SimilarityCoef:  c.Normalize.SimilarityCoef,
			InteractionCoef: c.Normalize.InteractionCoef,
			TimeCoef:        c.Normalize.TimeCoef,
		}
	}
	return Multiplicative{}
}

// aggregate sums combined rows per film and ranks them by descending score.
// Films keep first-seen order on ties.
func aggregate(rows []ScoreRow) []ScoredItem {
	index := make(map[int]int)
	items := make([]ScoredItem, 0)
	for i := range rows {
		r := &rows[i]
		pos, ok := index[r.Film.ID]
		if !ok {
			pos = len(items)
			index[r.Film.ID] = pos
			items = append(items, ScoredItem{Film: r.Film})
		}
		items[pos].Score += r.Contribution
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items
}

// contributions groups combined rows for the requested films, each list in
// descending contribution order.
func contributions(rows []ScoreRow, filmIDs []int) map[int][]Contribution {
	wanted := make(map[int]struct{}, len(filmIDs))
	for _, id := range filmIDs {
		wanted[id] = struct{}{}
	}

	out := make(map[int][]Contribution)
	for i := range rows {
		r := &rows[i]
		if _, ok := wanted[r.Film.ID]; !ok {
			continue
		}
		out[r.Film.ID] = append(out[r.Film.ID], r.contribution())
	}
	for id := range out {
		list := out[id]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Contribution > list[j].Contribution
		})
	}
	return out
}

func (r *ScoreRow) contribution() Contribution {
	c := Contribution{
		FilmID:            r.Film.ID,
		Contributor:       r.Contributor,
		Kind:              r.Contributor.Kind(),
		Username:          r.Contributor.Label(),
		Similarity:        r.Similarity,
		InteractionWeight: r.InteractionWeight,
		TimeWeight:        r.TimeWeight,
		InteractionZ:      r.InteractionZ,
		Contribution:      r.Contribution,
	}
	if f, ok := r.Contributor.(Followee); ok {
		c.FolloweeID = f.ID
	}
	return c
}
