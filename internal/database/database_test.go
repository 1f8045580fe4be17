// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/filmgraph/internal/config"
)

// testDBSemaphore serializes DuckDB instances across tests. Too many
// concurrent CGO connections can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory database. The semaphore is held for the
// whole test and released by t.Cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// fixture holds the ids assigned while seeding.
type fixture struct {
	users map[string]int
	films map[string]int
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string { return &v }
func rated(r float64) *float64 { return floatPtr(r) }
func watchedRec(r *float64) InteractionRecord {
	return InteractionRecord{Watched: true, Rating: r}
}

// seedFixture builds a small graph:
//
//	alice follows bob and carol; bob follows alice; nobody follows dave.
//	alice watched heat(4) alien(2) up(5), watchlisted jaws
//	bob   watched heat(5) alien(1) jaws(4.5) brazil(unrated)
//	carol watched heat(3), watchlisted up and brazil
//	dave  watched jaws(5)
func seedFixture(t *testing.T, db *DB) fixture {
	t.Helper()
	ctx := context.Background()
	fx := fixture{users: map[string]int{}, films: map[string]int{}}

	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		id, err := db.UpsertUser(ctx, UserRecord{Username: name})
		if err != nil {
			t.Fatalf("UpsertUser(%s) error = %v", name, err)
		}
		fx.users[name] = id
	}
	films := []FilmRecord{
		{Slug: "heat", Title: "Heat", Year: intPtr(1995), Genres: strPtr("Crime")},
		{Slug: "alien", Title: "Alien", Year: intPtr(1979)},
		{Slug: "up", Title: "Up", Year: intPtr(2009)},
		{Slug: "jaws", Title: "Jaws", Year: intPtr(1975)},
		{Slug: "brazil", Title: "Brazil"},
	}
	for _, f := range films {
		id, err := db.UpsertFilm(ctx, f)
		if err != nil {
			t.Fatalf("UpsertFilm(%s) error = %v", f.Slug, err)
		}
		fx.films[f.Slug] = id
	}

	interactions := []struct {
		user, film string
		rec        InteractionRecord
	}{
		{"alice", "heat", watchedRec(rated(4))},
		{"alice", "alien", watchedRec(rated(2))},
		{"alice", "up", watchedRec(rated(5))},
		{"alice", "jaws", InteractionRecord{Watchlist: true}},
		{"bob", "heat", watchedRec(rated(5))},
		{"bob", "alien", watchedRec(rated(1))},
		{"bob", "jaws", watchedRec(rated(4.5))},
		{"bob", "brazil", watchedRec(nil)},
		{"carol", "heat", watchedRec(rated(3))},
		{"carol", "up", InteractionRecord{Watchlist: true}},
		{"carol", "brazil", InteractionRecord{Watchlist: true}},
		{"dave", "jaws", watchedRec(rated(5))},
	}
	for _, in := range interactions {
		if err := db.UpsertInteraction(ctx, fx.users[in.user], fx.films[in.film], in.rec); err != nil {
			t.Fatalf("UpsertInteraction(%s, %s) error = %v", in.user, in.film, err)
		}
	}

	for _, e := range [][2]string{{"alice", "bob"}, {"alice", "carol"}, {"bob", "alice"}} {
		if err := db.AddFollowEdge(ctx, fx.users[e[0]], fx.users[e[1]], 1); err != nil {
			t.Fatalf("AddFollowEdge(%s, %s) error = %v", e[0], e[1], err)
		}
	}
	return fx
}

func TestNew_InMemory(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	for _, table := range []string{"users", "films", "interactions", "graph_edges"} {
		var n int
		if err := db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestNew_FileCreatesDirectory(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := t.TempDir() + "/nested/dir/filmgraph.duckdb"
	db, err := New(&config.DatabaseConfig{Path: path, MaxMemory: "256MB"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := db.UpsertUser(context.Background(), UserRecord{Username: "alice"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(&config.DatabaseConfig{Path: path, MaxMemory: "256MB"})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.UserByName(context.Background(), "alice"); err != nil {
		t.Errorf("user did not persist: %v", err)
	}
}

func TestInClause(t *testing.T) {
	tests := []struct {
		ids  []int
		want string
	}{
		{ids: []int{1}, want: "?"},
		{ids: []int{1, 2, 3}, want: "?, ?, ?"},
	}
	for _, tt := range tests {
		got, args := inClause(tt.ids)
		if got != tt.want || len(args) != len(tt.ids) {
			t.Errorf("inClause(%v) = %q, %d args", tt.ids, got, len(args))
		}
	}
}

func TestDedupeIDs(t *testing.T) {
	got := dedupeIDs([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("dedupeIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupeIDs() = %v, want %v", got, want)
		}
	}
}
