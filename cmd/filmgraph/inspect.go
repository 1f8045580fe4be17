// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/filmgraph/internal/metrics"
	"github.com/tomtom215/filmgraph/internal/recommend"
)

func (a *app) similaritiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similarities USERNAME",
		Short: "List a user's followees by taste similarity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			start := time.Now()
			scores, err := engine.ComputeSimilarityScores(cmd.Context(), args[0])
			metrics.RecordScoring("similarities", "", time.Since(start), err)
			if err != nil {
				return err
			}
			return a.writeJSON(scores)
		},
	}
}

func (a *app) explainCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "explain USERNAME FOLLOWEE",
		Short: "Show the films two users disagree on most",
		Long: `Compare USERNAME and FOLLOWEE on the films both rated, each rating
expressed as a z-score against that user's own rating history.

Example:
  filmgraph explain alice bob --limit 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			start := time.Now()
			explanation, err := engine.ExplainSimilarity(cmd.Context(), args[0], args[1], limit)
			metrics.RecordScoring("explain", "", time.Since(start), err)
			if err != nil {
				return err
			}
			return a.writeJSON(explanation)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "disagreements to list (0 uses RECOMMEND_DISAGREEMENT_LIMIT)")
	return cmd
}

// filmContributions is one film's breakdown in `contributions` output.
type filmContributions struct {
	FilmID        int                      `json:"film_id"`
	Score         float64                  `json:"score"`
	Contributions []recommend.Contribution `json:"contributions"`
}

func (a *app) contributionsCmd() *cobra.Command {
	var (
		filmIDs []int
		mode    string
	)

	cmd := &cobra.Command{
		Use:   "contributions USERNAME",
		Short: "Break film scores down by contributor",
		Long: `Show who contributed what to each requested film's score.

Example:
  filmgraph contributions alice --film-ids 10,12 --mode multiplicative`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(filmIDs) == 0 {
				return fmt.Errorf("--film-ids is required")
			}
			m, err := recommend.ParseMode(mode)
			if err != nil {
				return err
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			if m == "" {
				m = engine.Config().DefaultMode()
			}

			start := time.Now()
			var byFilm map[int][]recommend.Contribution
			if m == recommend.ModeNormalized {
				byFilm, err = engine.ComputeSocialContributionsNormalized(cmd.Context(), args[0], filmIDs)
			} else {
				byFilm, err = engine.ComputeSocialContributions(cmd.Context(), args[0], filmIDs)
			}
			metrics.RecordScoring("contributions", string(m), time.Since(start), err)
			if err != nil {
				return err
			}

			out := make([]filmContributions, 0, len(filmIDs))
			for _, id := range filmIDs {
				fc := filmContributions{FilmID: id, Contributions: byFilm[id]}
				if fc.Contributions == nil {
					fc.Contributions = []recommend.Contribution{}
				}
				for _, c := range fc.Contributions {
					fc.Score += c.Contribution
				}
				out = append(out, fc)
			}
			return a.writeJSON(out)
		},
	}
	cmd.Flags().IntSliceVar(&filmIDs, "film-ids", nil, "comma-separated film ids")
	cmd.Flags().StringVar(&mode, "mode", "", "combination mode: multiplicative or normalized")
	return cmd
}
