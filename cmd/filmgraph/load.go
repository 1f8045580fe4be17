// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/filmgraph/internal/database"
	"github.com/tomtom215/filmgraph/internal/logging"
)

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load DUMP.json...",
		Short: "Ingest extracted JSON dumps into the database",
		Long: `Load users, films, interactions and follow edges from JSON dumps.

Each file is applied in its own transaction: an invalid row rejects that
file and leaves the database as it was. "-" reads from stdin. Reloading a
dump merges with what is stored: missing ratings keep the stored value and
watched/watchlist/liked flags are never cleared.

Example:
  filmgraph load crawl-2026-10-01.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}

			all := make([]database.LoadStats, 0, len(args))
			for _, path := range args {
				var stats database.LoadStats
				if path == "-" {
					stats, err = db.LoadDump(cmd.Context(), os.Stdin)
				} else {
					stats, err = db.LoadDumpFile(cmd.Context(), path)
				}
				if err != nil {
					return fmt.Errorf("load %s: %w", path, err)
				}
				logging.Info().
					Str("file", path).
					Int("users", stats.Users).
					Int("films", stats.Films).
					Int("interactions", stats.Interactions).
					Int("follows", stats.Follows).
					Dur("duration", stats.Duration).
					Msg("dump loaded")
				all = append(all, stats)
			}
			return a.writeJSON(all)
		},
	}
}
