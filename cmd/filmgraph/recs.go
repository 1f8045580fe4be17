// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/filmgraph/internal/metrics"
	"github.com/tomtom215/filmgraph/internal/recommend"
	"github.com/tomtom215/filmgraph/internal/validation"
)

type recsOptions struct {
	limit       int
	order       string
	mode        string
	explainTop  int
	concurrency int
}

func (a *app) recsCmd() *cobra.Command {
	var opts recsOptions

	cmd := &cobra.Command{
		Use:   "recs USERNAME...",
		Short: "Rank unwatched films for one or more users",
		Long: `Rank films each user has not watched by their followees' interactions.

Several users are scored concurrently (--concurrency, default
RECOMMEND_BATCH_CONCURRENCY). One user prints a single response object;
several print an array in argument order.

Examples:
  filmgraph recs alice
  filmgraph recs alice --limit 20 --explain-top 5
  filmgraph recs alice --order asc --mode multiplicative
  filmgraph recs alice bob carol --concurrency 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRecs(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "films per user (0 uses RECOMMEND_DEFAULT_LIMIT)")
	cmd.Flags().StringVar(&opts.order, "order", "desc", "ranking direction: desc or asc")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "combination mode: multiplicative or normalized")
	cmd.Flags().IntVar(&opts.explainTop, "explain-top", 0, "attach top contributors to the first N films")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "users scored in parallel (0 uses config)")
	return cmd
}

func (a *app) runRecs(ctx context.Context, usernames []string, opts recsOptions) error {
	mode, err := recommend.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	order, err := recommend.ParseSortOrder(opts.order)
	if err != nil {
		return err
	}

	reqs := make([]recommend.Request, len(usernames))
	for i, u := range usernames {
		reqs[i] = recommend.Request{
			Username:   u,
			Limit:      opts.limit,
			Order:      order,
			Mode:       mode,
			ExplainTop: opts.explainTop,
		}
		if err := validation.Validate(&reqs[i]); err != nil {
			return fmt.Errorf("user %q: %w", u, err)
		}
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = a.cfg.Recommend.BatchConcurrency
	}
	results, err := recommendAll(ctx, engine, reqs, concurrency)
	if err != nil {
		return err
	}

	if len(results) == 1 {
		return a.writeJSON(results[0])
	}
	return a.writeJSON(results)
}

// recommendAll scores reqs with at most concurrency in flight. Results keep
// request order; the first failure cancels the rest.
func recommendAll(ctx context.Context, engine *recommend.Engine, reqs []recommend.Request, concurrency int) ([]*recommend.Response, error) {
	results := make([]*recommend.Response, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range reqs {
		g.Go(func() error {
			start := time.Now()
			resp, err := engine.Recommend(gctx, reqs[i])
			mode := string(reqs[i].Mode)
			if resp != nil {
				mode = string(resp.Metadata.Mode)
			}
			metrics.RecordScoring("recommendations", mode, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("recommend %q: %w", reqs[i].Username, err)
			}
			metrics.RecordScoringSize(resp.TotalCandidates, resp.Metadata.Followees)
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
