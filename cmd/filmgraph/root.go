// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/filmgraph/internal/config"
	"github.com/tomtom215/filmgraph/internal/database"
	"github.com/tomtom215/filmgraph/internal/logging"
	"github.com/tomtom215/filmgraph/internal/recommend"
)

// Version is set at build time.
var Version = "dev"

// app carries state shared by every subcommand of one invocation.
type app struct {
	out io.Writer

	// Global flags
	configPath string
	dbPath     string

	cfg *config.Config
	db  *database.DB
}

// run executes one invocation and always releases the store, including
// when a subcommand fails.
func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{out: out}
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "filmgraph",
		Short: "Social film recommendations from the people you follow",
		Long: `filmgraph ranks films for a user by how much the people they follow
liked them, weighted by how closely each followee's taste matches theirs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "DuckDB file (overrides DUCKDB_PATH)")

	root.AddCommand(
		a.recsCmd(),
		a.similaritiesCmd(),
		a.explainCmd(),
		a.contributionsCmd(),
		a.loadCmd(),
		a.serveCmd(),
	)
	return root
}

// setup loads configuration and initializes logging.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	return nil
}

// store opens the database on first use.
func (a *app) store() (*database.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.New(&a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return db, nil
}

// engine opens the store and builds an engine over it.
func (a *app) engine() (*recommend.Engine, error) {
	db, err := a.store()
	if err != nil {
		return nil, err
	}
	return recommend.NewEngine(db, buildEngineConfig(&a.cfg.Recommend), logging.WithComponent("recommend"))
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// writeJSON prints v as indented JSON.
func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// buildEngineConfig converts the recommend config section. The engine
// validates the result.
func buildEngineConfig(c *config.RecommendConfig) *recommend.Config {
	return &recommend.Config{
		Ratings: recommend.RatingConfig{
			NegativeMin:         c.Ratings.NegativeMin,
			NegativeMax:         c.Ratings.NegativeMax,
			PositiveMin:         c.Ratings.PositiveMin,
			PositiveMax:         c.Ratings.PositiveMax,
			Unrated:             c.Ratings.Unrated,
			WatchlistMultiplier: c.Ratings.WatchlistMultiplier,
		},
		Similarity: recommend.SimilarityConfig{
			Prior:             c.Similarity.Prior,
			K:                 c.Similarity.K,
			DefaultSimilarity: c.Similarity.DefaultSimilarity,
			NormalizeTop:      c.Similarity.NormalizeTop,
			SelfWeight:        c.Similarity.SelfWeight,
		},
		Normalize: recommend.NormalizeConfig{
			Enabled:         c.Normalize.Enabled,
			SimilarityCoef:  c.Normalize.SimilarityCoef,
			InteractionCoef: c.Normalize.InteractionCoef,
			TimeCoef:        c.Normalize.TimeCoef,
		},
		Time: recommend.TimeConfig{
			MinWeight:     c.Time.MinWeight,
			HalfLifeYears: c.Time.HalfLifeYears,
			ReferenceYear: c.Time.ReferenceYear,
		},
		Limits: recommend.LimitsConfig{
			DefaultLimit:        c.Limits.DefaultLimit,
			MaxLimit:            c.Limits.MaxLimit,
			ExplainContributors: c.Limits.ExplainContributors,
			DisagreementLimit:   c.Limits.DisagreementLimit,
		},
	}
}
