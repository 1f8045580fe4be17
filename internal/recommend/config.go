// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid recommend config")

// Config contains all configuration for the social scoring engine.
type Config struct {
	// Ratings shapes how a single interaction becomes a weight.
	Ratings RatingConfig `json:"ratings"`

	// Similarity contains parameters for the similarity estimator.
	Similarity SimilarityConfig `json:"similarity"`

	// Normalize selects and tunes the normalized combination mode.
	Normalize NormalizeConfig `json:"normalize"`

	// Time contains recency decay parameters.
	Time TimeConfig `json:"time"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`
}

// RatingConfig maps interactions onto signed preference weights.
type RatingConfig struct {
	// NegativeMin is the weight of the most disliked rating (z = -2).
	NegativeMin float64 `json:"negative_min"`

	// NegativeMax is the weight at the user's mean rating from below (z = 0).
	NegativeMax float64 `json:"negative_max"`

	// PositiveMin is the weight just above the user's mean rating.
	PositiveMin float64 `json:"positive_min"`

	// PositiveMax is the weight of the most liked rating (z = +2).
	PositiveMax float64 `json:"positive_max"`

	// Unrated is the weight of a watch without a rating. Must be positive.
	Unrated float64 `json:"unrated"`

	// WatchlistMultiplier scales Unrated for watchlist-only rows.
	WatchlistMultiplier float64 `json:"watchlist_multiplier"`
}

// SimilarityConfig contains parameters for the similarity estimator.
type SimilarityConfig struct {
	// Prior is the rating agreement assumed without evidence.
	Prior float64 `json:"prior"`

	// K is the shrinkage pseudo-count.
	K float64 `json:"k"`

	// DefaultSimilarity applies to followees absent from the similarity batch.
	DefaultSimilarity float64 `json:"default_similarity"`

	// NormalizeTop rescales the batch so the best followee is exactly 1.0.
	NormalizeTop bool `json:"normalize_top"`

	// SelfWeight is the similarity given to the root's own watchlist entries.
	SelfWeight float64 `json:"self_weight"`
}

// NormalizeConfig tunes normalized mode.
type NormalizeConfig struct {
	// Enabled makes normalized mode the default combination.
	Enabled bool `json:"enabled"`

	SimilarityCoef  float64 `json:"similarity_coef"`
	InteractionCoef float64 `json:"interaction_coef"`
	TimeCoef        float64 `json:"time_coef"`
}

// TimeConfig contains recency decay parameters.
type TimeConfig struct {
	// MinWeight floors the decay.
	MinWeight float64 `json:"min_weight"`

	// HalfLifeYears is the age at which a film's weight halves.
	HalfLifeYears int `json:"half_life_years"`

	// ReferenceYear pins the current year. Zero means use the engine clock.
	ReferenceYear int `json:"reference_year"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the number of films returned when a request omits it.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps any requested limit.
	MaxLimit int `json:"max_limit"`

	// ExplainContributors is how many contributors each explained film lists.
	ExplainContributors int `json:"explain_contributors"`

	// DisagreementLimit is the default length of a similarity explanation.
	DisagreementLimit int `json:"disagreement_limit"`
}

// DefaultConfig returns sensible defaults for social scoring.
func DefaultConfig() *Config {
	return &Config{
		Ratings: RatingConfig{
			NegativeMin:         -1.0,
			NegativeMax:         -0.1,
			PositiveMin:         0.1,
			PositiveMax:         1.0,
			Unrated:             0.25,
			WatchlistMultiplier: 0.5,
		},
		Similarity: SimilarityConfig{
			Prior:             0.5,
			K:                 10,
			DefaultSimilarity: 0.5,
			NormalizeTop:      true,
			SelfWeight:        5.0,
		},
		Normalize: NormalizeConfig{
			Enabled:         true,
			SimilarityCoef:  1.0,
			InteractionCoef: 1.0,
			TimeCoef:        1.0,
		},
		Time: TimeConfig{
			MinWeight:     0.25,
			HalfLifeYears: 100,
		},
		Limits: LimitsConfig{
			DefaultLimit:        200,
			MaxLimit:            5000,
			ExplainContributors: 3,
			DisagreementLimit:   10,
		},
	}
}

// DefaultMode returns the combination mode selected by configuration.
func (c *Config) DefaultMode() Mode {
	if c.Normalize.Enabled {
		return ModeNormalized
	}
	return ModeMultiplicative
}

// Validate checks configuration values for validity.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	r := c.Ratings
	if r.NegativeMin > r.NegativeMax {
		return fmt.Errorf("ratings.negative_min must not exceed negative_max, got %f > %f", r.NegativeMin, r.NegativeMax)
	}
	if r.PositiveMin > r.PositiveMax {
		return fmt.Errorf("ratings.positive_min must not exceed positive_max, got %f > %f", r.PositiveMin, r.PositiveMax)
	}
	if r.Unrated <= 0 {
		return fmt.Errorf("ratings.unrated must be positive, got %f", r.Unrated)
	}
	if r.WatchlistMultiplier < 0 || r.WatchlistMultiplier > 1 {
		return fmt.Errorf("ratings.watchlist_multiplier must be in [0, 1], got %f", r.WatchlistMultiplier)
	}

	s := c.Similarity
	if s.Prior < 0 || s.Prior > 1 {
		return fmt.Errorf("similarity.prior must be in [0, 1], got %f", s.Prior)
	}
	if s.K < 0 {
		return fmt.Errorf("similarity.k must be non-negative, got %f", s.K)
	}
	if s.DefaultSimilarity < 0 || s.DefaultSimilarity > 1 {
		return fmt.Errorf("similarity.default_similarity must be in [0, 1], got %f", s.DefaultSimilarity)
	}
	if s.SelfWeight < 0 {
		return fmt.Errorf("similarity.self_weight must be non-negative, got %f", s.SelfWeight)
	}

	if c.Time.MinWeight < 0 || c.Time.MinWeight > 1 {
		return fmt.Errorf("time.min_weight must be in [0, 1], got %f", c.Time.MinWeight)
	}
	if c.Time.HalfLifeYears < 1 {
		return fmt.Errorf("time.half_life_years must be positive, got %d", c.Time.HalfLifeYears)
	}
	if c.Time.ReferenceYear < 0 {
		return fmt.Errorf("time.reference_year must be non-negative, got %d", c.Time.ReferenceYear)
	}

	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= default_limit, got %d", c.Limits.MaxLimit)
	}
	if c.Limits.ExplainContributors < 1 {
		return fmt.Errorf("limits.explain_contributors must be positive, got %d", c.Limits.ExplainContributors)
	}
	if c.Limits.DisagreementLimit < 1 {
		return fmt.Errorf("limits.disagreement_limit must be positive, got %d", c.Limits.DisagreementLimit)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	clone := *c
	return &clone
}

// String returns a JSON representation of the config.
func (c *Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
