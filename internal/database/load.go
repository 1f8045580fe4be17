// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// Dump is the JSON interchange format produced by the extractor. Users and
// films referenced only by interactions or follows are created on the fly.
type Dump struct {
	Users        []UserRecord      `json:"users"`
	Films        []FilmRecord      `json:"films"`
	Interactions []DumpInteraction `json:"interactions"`
	Follows      []DumpFollow      `json:"follows"`
}

// DumpInteraction keys an InteractionRecord by natural keys.
type DumpInteraction struct {
	Username string `json:"username"`
	Slug     string `json:"slug"`
	InteractionRecord
}

// DumpFollow is one edge of the crawled follow graph.
type DumpFollow struct {
	Follower string `json:"follower"`
	Followee string `json:"followee"`
	Depth    int    `json:"depth,omitempty"`
}

// LoadStats counts what a load wrote.
type LoadStats struct {
	Users        int           `json:"users"`
	Films        int           `json:"films"`
	Interactions int           `json:"interactions"`
	Follows      int           `json:"follows"`
	Duration     time.Duration `json:"duration_ns"`
}

// LoadDumpFile opens path and calls LoadDump.
func (db *DB) LoadDumpFile(ctx context.Context, path string) (LoadStats, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return LoadStats{}, fmt.Errorf("open dump: %w", err)
	}
	defer closeWithLog(f, db.logger, "dump file")
	return db.LoadDump(ctx, f)
}

// LoadDump decodes a Dump from r and applies it in one transaction.
// Any invalid row aborts the whole load.
func (db *DB) LoadDump(ctx context.Context, r io.Reader) (LoadStats, error) {
	start := time.Now()

	var dump Dump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return LoadStats{}, fmt.Errorf("decode dump: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return LoadStats{}, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Warn().Err(rbErr).Msg("Failed to roll back dump load")
			}
		}
	}()

	l := &loader{ctx: ctx, q: tx, users: map[string]int{}, films: map[string]int{}}
	stats, err := l.apply(&dump)
	if err != nil {
		return LoadStats{}, err
	}

	if err := tx.Commit(); err != nil {
		return LoadStats{}, fmt.Errorf("commit dump: %w", err)
	}
	committed = true

	stats.Duration = time.Since(start)
	db.logger.Info().
		Int("users", stats.Users).
		Int("films", stats.Films).
		Int("interactions", stats.Interactions).
		Int("follows", stats.Follows).
		Dur("duration", stats.Duration).
		Msg("Dump loaded")
	return stats, nil
}

// loader resolves natural keys to ids within one transaction.
type loader struct {
	ctx   context.Context
	q     querier
	users map[string]int
	films map[string]int
}

func (l *loader) apply(d *Dump) (LoadStats, error) {
	var stats LoadStats

	for i, u := range d.Users {
		id, err := upsertUser(l.ctx, l.q, u)
		if err != nil {
			return stats, fmt.Errorf("users[%d]: %w", i, err)
		}
		l.users[u.Username] = id
		stats.Users++
	}

	for i, f := range d.Films {
		id, err := upsertFilm(l.ctx, l.q, f)
		if err != nil {
			return stats, fmt.Errorf("films[%d]: %w", i, err)
		}
		l.films[f.Slug] = id
		stats.Films++
	}

	for i, in := range d.Interactions {
		userID, err := l.userID(in.Username)
		if err != nil {
			return stats, fmt.Errorf("interactions[%d]: %w", i, err)
		}
		filmID, err := l.filmID(in.Slug)
		if err != nil {
			return stats, fmt.Errorf("interactions[%d]: %w", i, err)
		}
		if err := upsertInteraction(l.ctx, l.q, userID, filmID, in.InteractionRecord); err != nil {
			return stats, fmt.Errorf("interactions[%d]: %w", i, err)
		}
		stats.Interactions++
	}

	for i, e := range d.Follows {
		src, err := l.userID(e.Follower)
		if err != nil {
			return stats, fmt.Errorf("follows[%d]: %w", i, err)
		}
		dst, err := l.userID(e.Followee)
		if err != nil {
			return stats, fmt.Errorf("follows[%d]: %w", i, err)
		}
		if err := addFollowEdge(l.ctx, l.q, src, dst, e.Depth); err != nil {
			return stats, fmt.Errorf("follows[%d]: %w", i, err)
		}
		stats.Follows++
	}

	return stats, nil
}

func (l *loader) userID(username string) (int, error) {
	if id, ok := l.users[username]; ok {
		return id, nil
	}
	id, err := upsertUser(l.ctx, l.q, UserRecord{Username: username})
	if err != nil {
		return 0, err
	}
	l.users[username] = id
	return id, nil
}

func (l *loader) filmID(slug string) (int, error) {
	if id, ok := l.films[slug]; ok {
		return id, nil
	}
	id, err := upsertFilm(l.ctx, l.q, FilmRecord{Slug: slug})
	if err != nil {
		return 0, err
	}
	l.films[slug] = id
	return id, nil
}
