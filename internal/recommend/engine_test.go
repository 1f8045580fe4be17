// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeInteraction struct {
	rating    *float64
	watched   bool
	watchlist bool
}

// fakeStore implements Store over in-memory maps with the same query
// semantics as the database layer.
type fakeStore struct {
	users        map[int]User
	films        map[int]Film
	interactions map[int]map[int]fakeInteraction // user -> film -> interaction
	follows      map[int][]int

	err error

	ratingStatsCalls atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int]User{},
		films:        map[int]Film{},
		interactions: map[int]map[int]fakeInteraction{},
		follows:      map[int][]int{},
	}
}

func (s *fakeStore) addUser(id int, name string) {
	s.users[id] = User{ID: id, Username: name}
}

func (s *fakeStore) addFilm(id int, title string, year int) {
	s.films[id] = Film{ID: id, Title: title, Year: intPtr(year)}
}

func (s *fakeStore) watch(user, film int, rating float64) {
	var r *float64
	if rating > 0 {
		r = floatPtr(rating)
	}
	s.set(user, film, fakeInteraction{watched: true, rating: r})
}

func (s *fakeStore) watchlist(user, film int) {
	s.set(user, film, fakeInteraction{watchlist: true})
}

func (s *fakeStore) set(user, film int, in fakeInteraction) {
	if s.interactions[user] == nil {
		s.interactions[user] = map[int]fakeInteraction{}
	}
	s.interactions[user][film] = in
}

// filmsOf lists a user's interactions in film id order so query results are
// deterministic.
func (s *fakeStore) filmsOf(user int) []int {
	ids := make([]int, 0, len(s.interactions[user]))
	for id := range s.interactions[user] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *fakeStore) UserByName(_ context.Context, username string) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

func (s *fakeStore) UserNames(_ context.Context, ids []int) (map[int]User, error) {
	out := map[int]User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *fakeStore) SocialRows(_ context.Context, rootID int) ([]SocialRow, error) {
	var rows []SocialRow
	for _, f := range s.follows[rootID] {
		for _, filmID := range s.filmsOf(f) {
			in := s.interactions[f][filmID]
			if !in.watched && !in.watchlist {
				continue
			}
			if s.interactions[rootID][filmID].watched {
				continue
			}
			rows = append(rows, SocialRow{
				Film:       s.films[filmID],
				FolloweeID: f,
				Watched:    in.watched,
				Watchlist:  in.watchlist,
				Rating:     in.rating,
			})
		}
	}
	return rows, nil
}

func (s *fakeStore) SimilarityRows(_ context.Context, rootID int) ([]SimilarityRow, error) {
	var rows []SimilarityRow
	for _, f := range s.follows[rootID] {
		row := SimilarityRow{FolloweeID: f}
		var diffs []float64
		for _, filmID := range s.filmsOf(rootID) {
			mine := s.interactions[rootID][filmID]
			theirs := s.interactions[f][filmID]
			if !mine.watched || !theirs.watched {
				continue
			}
			row.Overlap++
			if mine.rating != nil && theirs.rating != nil {
				row.RatedOverlap++
				diffs = append(diffs, math.Abs(*mine.rating-*theirs.rating))
			}
		}
		if row.Overlap == 0 {
			continue
		}
		if len(diffs) > 0 {
			row.AvgAbsRatingDiff = floatPtr(mean(diffs))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *fakeStore) WatchedCount(_ context.Context, userID int) (int, error) {
	n := 0
	for _, in := range s.interactions[userID] {
		if in.watched {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) FolloweeWatchedCounts(ctx context.Context, ids []int) (map[int]int, error) {
	out := map[int]int{}
	for _, id := range ids {
		out[id], _ = s.WatchedCount(ctx, id)
	}
	return out, nil
}

func (s *fakeStore) RatingStats(_ context.Context, ids []int) (map[int]RatingStats, error) {
	s.ratingStatsCalls.Add(1)
	out := map[int]RatingStats{}
	for _, id := range ids {
		var ratings []float64
		for _, filmID := range s.filmsOf(id) {
			if in := s.interactions[id][filmID]; in.rating != nil {
				ratings = append(ratings, *in.rating)
			}
		}
		if len(ratings) < 2 {
			continue
		}
		m := mean(ratings)
		var sq float64
		for _, r := range ratings {
			sq += (r - m) * (r - m)
		}
		if std := math.Sqrt(sq / float64(len(ratings))); std > 0 {
			out[id] = RatingStats{Mean: m, Std: std}
		}
	}
	return out, nil
}

func (s *fakeStore) SharedRatings(_ context.Context, rootID int, followeeIDs []int) ([]SharedRating, error) {
	var out []SharedRating
	for _, f := range followeeIDs {
		for _, filmID := range s.filmsOf(rootID) {
			mine := s.interactions[rootID][filmID]
			theirs := s.interactions[f][filmID]
			if mine.watched && theirs.watched && mine.rating != nil && theirs.rating != nil {
				out = append(out, SharedRating{FolloweeID: f, RootRating: *mine.rating, FolloweeRating: *theirs.rating})
			}
		}
	}
	return out, nil
}

func (s *fakeStore) RootWatchlist(_ context.Context, rootID int) ([]Film, error) {
	var out []Film
	for _, filmID := range s.filmsOf(rootID) {
		if in := s.interactions[rootID][filmID]; in.watchlist && !in.watched {
			out = append(out, s.films[filmID])
		}
	}
	return out, nil
}

func (s *fakeStore) SharedRatedFilms(_ context.Context, rootID, followeeID int) ([]SharedRatedFilm, error) {
	var out []SharedRatedFilm
	for _, filmID := range s.filmsOf(rootID) {
		mine := s.interactions[rootID][filmID]
		theirs := s.interactions[followeeID][filmID]
		if mine.watched && theirs.watched && mine.rating != nil && theirs.rating != nil {
			out = append(out, SharedRatedFilm{Film: s.films[filmID], RootRating: *mine.rating, FolloweeRating: *theirs.rating})
		}
	}
	return out, nil
}

const (
	filmLoved    = 10
	filmMaybe    = 11
	filmSeen     = 12
	filmCarol    = 13
	filmStranger = 20
	filmQueued   = 30
)

// socialFixture: alice follows bob (same taste) and carol (different taste).
// dave is not followed.
func socialFixture() *fakeStore {
	s := newFakeStore()
	s.addUser(1, "alice")
	s.addUser(2, "bob")
	s.addUser(3, "carol")
	s.addUser(4, "dave")
	s.follows[1] = []int{2, 3}

	for id := 1; id <= 4; id++ {
		s.addFilm(id, fmt.Sprintf("Shared %d", id), 2020)
	}
	s.addFilm(filmLoved, "Loved", 2020)
	s.addFilm(filmMaybe, "Maybe", 2020)
	s.addFilm(filmSeen, "Seen", 2020)
	s.addFilm(filmCarol, "Carol Pick", 2020)
	s.addFilm(filmStranger, "Stranger Pick", 2020)
	s.addFilm(filmQueued, "Queued", 2020)

	for film, r := range map[int]float64{1: 4, 2: 2, 3: 5, 4: 1} {
		s.watch(1, film, r)
		s.watch(2, film, r)
	}
	s.watchlist(1, filmQueued)

	s.watch(2, filmLoved, 5)
	s.watchlist(2, filmMaybe)
	s.watch(2, filmSeen, 0)

	s.watch(3, 1, 1)
	s.watch(3, filmCarol, 3)

	s.watch(4, filmStranger, 5)
	return s
}

func newTestEngine(t *testing.T, store Store, modify func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Time.ReferenceYear = 2025
	if modify != nil {
		modify(cfg)
	}
	e, err := NewEngine(store, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func multiplicative(c *Config) { c.Normalize.Enabled = false }

func scoreOf(items []ScoredItem, filmID int) (float64, bool) {
	for _, item := range items {
		if item.Film.ID == filmID {
			return item.Score, true
		}
	}
	return 0, false
}

func TestNewEngine(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		if _, err := NewEngine(nil, nil, zerolog.Nop()); err == nil {
			t.Error("NewEngine(nil store) error = nil")
		}
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		e, err := NewEngine(newFakeStore(), nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		if e.Config().Similarity.SelfWeight != 5.0 {
			t.Errorf("SelfWeight = %f, want default", e.Config().Similarity.SelfWeight)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Time.HalfLifeYears = 0
		_, err := NewEngine(newFakeStore(), cfg, zerolog.Nop())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewEngine() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("config is copied", func(t *testing.T) {
		cfg := DefaultConfig()
		e, _ := NewEngine(newFakeStore(), cfg, zerolog.Nop())
		cfg.Ratings.Unrated = 0.9
		if e.Config().Ratings.Unrated != 0.25 {
			t.Error("engine config changed after caller mutation")
		}
	})
}

func TestEngine_CurrentYear(t *testing.T) {
	clock := func() time.Time { return time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC) }

	e, _ := NewEngine(newFakeStore(), nil, zerolog.Nop(), WithClock(clock))
	if got := e.CurrentYear(); got != 2031 {
		t.Errorf("CurrentYear() = %d, want 2031 from clock", got)
	}

	cfg := DefaultConfig()
	cfg.Time.ReferenceYear = 1999
	e, _ = NewEngine(newFakeStore(), cfg, zerolog.Nop(), WithClock(clock))
	if got := e.CurrentYear(); got != 1999 {
		t.Errorf("CurrentYear() = %d, want 1999 from config", got)
	}
}

func TestEngine_ComputeSimilarityScores(t *testing.T) {
	e := newTestEngine(t, socialFixture(), nil)

	scores, err := e.ComputeSimilarityScores(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ComputeSimilarityScores() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("len = %d, want 2 followees", len(scores))
	}
	if scores[0].Username != "bob" || scores[1].Username != "carol" {
		t.Errorf("order = %s, %s; want bob, carol", scores[0].Username, scores[1].Username)
	}
	if scores[0].Similarity != 1.0 {
		t.Errorf("bob similarity = %f, want 1.0", scores[0].Similarity)
	}
	if scores[0].Overlap != 4 || scores[0].RatedOverlap != 4 {
		t.Errorf("bob overlap = %d/%d, want 4/4", scores[0].Overlap, scores[0].RatedOverlap)
	}
}

func TestEngine_ComputeSocialScores(t *testing.T) {
	ctx := context.Background()

	for _, mode := range []struct {
		name   string
		modify func(*Config)
	}{
		{name: "normalized", modify: nil},
		{name: "multiplicative", modify: multiplicative},
	} {
		t.Run(mode.name, func(t *testing.T) {
			e := newTestEngine(t, socialFixture(), mode.modify)
			items, err := e.ComputeSocialScores(ctx, "alice", 0)
			if err != nil {
				t.Fatalf("ComputeSocialScores() error = %v", err)
			}

			t.Run("watched films excluded", func(t *testing.T) {
				for id := 1; id <= 4; id++ {
					if _, ok := scoreOf(items, id); ok {
						t.Errorf("film %d already watched by alice but scored", id)
					}
				}
			})

			t.Run("non-followees ignored", func(t *testing.T) {
				if _, ok := scoreOf(items, filmStranger); ok {
					t.Error("film from unfollowed user scored")
				}
			})

			t.Run("top rated watch beats watchlist", func(t *testing.T) {
				loved, _ := scoreOf(items, filmLoved)
				maybe, _ := scoreOf(items, filmMaybe)
				if loved <= maybe {
					t.Errorf("loved %f <= watchlisted %f", loved, maybe)
				}
			})

			t.Run("unrated watch beats watchlist", func(t *testing.T) {
				seen, _ := scoreOf(items, filmSeen)
				maybe, _ := scoreOf(items, filmMaybe)
				if seen <= maybe {
					t.Errorf("unrated watch %f <= watchlisted %f", seen, maybe)
				}
			})

			t.Run("root watchlist included", func(t *testing.T) {
				if _, ok := scoreOf(items, filmQueued); !ok {
					t.Error("alice's own watchlist film missing")
				}
			})

			t.Run("descending", func(t *testing.T) {
				for i := 1; i < len(items); i++ {
					if items[i].Score > items[i-1].Score {
						t.Errorf("items[%d] %f > items[%d] %f", i, items[i].Score, i-1, items[i-1].Score)
					}
				}
			})
		})
	}

	t.Run("root watchlist scores positive in multiplicative mode", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), multiplicative)
		items, _ := e.ComputeSocialScores(ctx, "alice", 0)
		queued, _ := scoreOf(items, filmQueued)
		want := 5.0 * 0.25 * 0.5 * TimeWeight(intPtr(2020), 2025, 0.25, 100)
		if !almostEqual(queued, want) {
			t.Errorf("queued score = %f, want %f", queued, want)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), nil)
		items, _ := e.ComputeSocialScores(ctx, "alice", 2)
		if len(items) != 2 {
			t.Errorf("len = %d, want 2", len(items))
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), nil)
		first, _ := e.ComputeSocialScores(ctx, "alice", 0)
		second, _ := e.ComputeSocialScores(ctx, "alice", 0)
		if !reflect.DeepEqual(first, second) {
			t.Error("repeated calls returned different results")
		}
	})
}

func TestEngine_ComputeSocialScores_NoFollowees(t *testing.T) {
	s := newFakeStore()
	s.addUser(1, "loner")
	e := newTestEngine(t, s, nil)

	items, err := e.ComputeSocialScores(context.Background(), "loner", 10)
	if err != nil {
		t.Fatalf("ComputeSocialScores() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}

	scores, err := e.ComputeSimilarityScores(context.Background(), "loner")
	if err != nil || len(scores) != 0 {
		t.Errorf("ComputeSimilarityScores() = %v, %v; want empty, nil", scores, err)
	}
}

func TestEngine_ComputeSocialContributions(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, socialFixture(), multiplicative)

	items, err := e.ComputeSocialScores(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ComputeSocialScores() error = %v", err)
	}
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.Film.ID
	}

	contrib, err := e.ComputeSocialContributions(ctx, "alice", ids)
	if err != nil {
		t.Fatalf("ComputeSocialContributions() error = %v", err)
	}

	for _, item := range items {
		list := contrib[item.Film.ID]
		sum := 0.0
		for i, c := range list {
			sum += c.Contribution
			if c.InteractionZ != nil {
				t.Errorf("film %d: interaction z set in multiplicative mode", item.Film.ID)
			}
			if i > 0 && c.Contribution > list[i-1].Contribution {
				t.Errorf("film %d: contributions not descending", item.Film.ID)
			}
		}
		if !almostEqual(sum, item.Score) {
			t.Errorf("film %d: contributions sum %f, score %f", item.Film.ID, sum, item.Score)
		}
	}

	queued := contrib[filmQueued]
	if len(queued) != 1 || queued[0].Kind != KindRootWatchlist || queued[0].Similarity != 5.0 {
		t.Errorf("queued contributions = %+v, want one root watchlist entry", queued)
	}

	t.Run("empty film list", func(t *testing.T) {
		got, err := e.ComputeSocialContributions(ctx, "alice", nil)
		if err != nil || len(got) != 0 {
			t.Errorf("got %v, %v; want empty, nil", got, err)
		}
	})
}

func TestEngine_UnscoredFolloweeUsesDefaultSimilarity(t *testing.T) {
	ctx := context.Background()
	const filmErin = 50

	s := socialFixture()
	s.addUser(5, "erin")
	s.follows[1] = append(s.follows[1], 5)
	s.addFilm(filmErin, "Erin Pick", 2020)
	s.watch(5, filmErin, 5)

	for _, def := range []float64{0.5, 0.3} {
		t.Run(fmt.Sprintf("default %.1f", def), func(t *testing.T) {
			e := newTestEngine(t, s, func(c *Config) { c.Similarity.DefaultSimilarity = def })

			scores, err := e.ComputeSimilarityScores(ctx, "alice")
			if err != nil {
				t.Fatalf("ComputeSimilarityScores() error = %v", err)
			}
			for _, sc := range scores {
				if sc.Username == "erin" {
					t.Errorf("erin in similarity batch: %+v", sc)
				}
			}

			contrib, err := e.ComputeSocialContributions(ctx, "alice", []int{filmErin})
			if err != nil {
				t.Fatalf("ComputeSocialContributions() error = %v", err)
			}
			list := contrib[filmErin]
			if len(list) != 1 || list[0].Username != "erin" {
				t.Fatalf("contributions = %+v, want erin only", list)
			}
			// A single rating has no z-score, so 5.0 maps to positive_max.
			cfg := e.Config()
			want := def * cfg.Ratings.PositiveMax * TimeWeight(intPtr(2020), 2025, cfg.Time.MinWeight, cfg.Time.HalfLifeYears)
			if list[0].Similarity != def {
				t.Errorf("similarity = %f, want %f", list[0].Similarity, def)
			}
			if !almostEqual(list[0].Contribution, want) {
				t.Errorf("contribution = %f, want %f", list[0].Contribution, want)
			}
		})
	}
}

func TestEngine_ComputeSocialContributionsNormalized(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, socialFixture(), nil)

	items, _ := e.ComputeSocialScores(ctx, "alice", 0)
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.Film.ID
	}
	contrib, err := e.ComputeSocialContributionsNormalized(ctx, "alice", ids)
	if err != nil {
		t.Fatalf("ComputeSocialContributionsNormalized() error = %v", err)
	}

	for _, item := range items {
		sum := 0.0
		for _, c := range contrib[item.Film.ID] {
			if c.InteractionZ == nil {
				t.Fatalf("film %d: missing interaction z", item.Film.ID)
			}
			want := c.Similarity * *c.InteractionZ * c.TimeWeight
			if !almostEqual(c.Contribution, want) {
				t.Errorf("film %d %s: contribution %f, want %f", item.Film.ID, c.Username, c.Contribution, want)
			}
			sum += c.Contribution
		}
		if !almostEqual(sum, item.Score) {
			t.Errorf("film %d: contributions sum %f, score %f", item.Film.ID, sum, item.Score)
		}
	}
}

func TestEngine_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), nil)
		resp, err := e.Recommend(ctx, Request{Username: "alice"})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if resp.Metadata.RequestID == "" {
			t.Error("request id not generated")
		}
		if resp.Metadata.Mode != ModeNormalized || resp.Metadata.Order != SortDescending {
			t.Errorf("metadata = %+v, want normalized/desc", resp.Metadata)
		}
		if resp.Metadata.Followees != 2 || resp.Metadata.CurrentYear != 2025 {
			t.Errorf("metadata = %+v, want 2 followees in 2025", resp.Metadata)
		}
		if resp.TotalCandidates != len(resp.Items) {
			t.Errorf("total %d != returned %d", resp.TotalCandidates, len(resp.Items))
		}
		for i, item := range resp.Items {
			if item.Rank != i+1 {
				t.Errorf("item %d rank = %d", i, item.Rank)
			}
			if item.Contributors != nil {
				t.Errorf("item %d explained without explain_top", i)
			}
		}
	})

	t.Run("ascending with limit", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), multiplicative)
		resp, err := e.Recommend(ctx, Request{Username: "alice", Order: SortAscending, Limit: 3, RequestID: "req-1"})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(resp.Items) != 3 {
			t.Fatalf("len = %d, want 3", len(resp.Items))
		}
		for i := 1; i < len(resp.Items); i++ {
			if resp.Items[i].Score < resp.Items[i-1].Score {
				t.Errorf("ascending order broken at %d", i)
			}
		}
		if resp.Metadata.RequestID != "req-1" || resp.Metadata.Mode != ModeMultiplicative {
			t.Errorf("metadata = %+v", resp.Metadata)
		}
	})

	t.Run("timestamp from clock", func(t *testing.T) {
		at := time.Date(2030, 3, 4, 5, 6, 7, 0, time.UTC)
		e, err := NewEngine(socialFixture(), nil, zerolog.Nop(), WithClock(func() time.Time { return at }))
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		resp, err := e.Recommend(ctx, Request{Username: "alice"})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !resp.Metadata.Timestamp.Equal(at) || resp.Metadata.CurrentYear != 2030 {
			t.Errorf("metadata = %+v, want timestamp %v in 2030", resp.Metadata, at)
		}
	})

	t.Run("mode override", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), nil)
		resp, _ := e.Recommend(ctx, Request{Username: "alice", Mode: ModeMultiplicative})
		if resp.Metadata.Mode != ModeMultiplicative {
			t.Errorf("mode = %q, want multiplicative", resp.Metadata.Mode)
		}
	})

	t.Run("limit capped", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), func(c *Config) {
			c.Limits.DefaultLimit = 1
			c.Limits.MaxLimit = 2
		})
		resp, _ := e.Recommend(ctx, Request{Username: "alice", Limit: 50})
		if len(resp.Items) != 2 {
			t.Errorf("len = %d, want 2", len(resp.Items))
		}
	})

	t.Run("explain top", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), func(c *Config) {
			c.Normalize.Enabled = false
			c.Limits.ExplainContributors = 1
		})
		resp, err := e.Recommend(ctx, Request{Username: "alice", ExplainTop: 2})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		for i, item := range resp.Items {
			if i >= 2 {
				if item.Contributors != nil || item.ContributorCount != 0 {
					t.Errorf("item %d explained beyond explain_top", i)
				}
				continue
			}
			if item.ContributorCount < 1 || len(item.Contributors) != 1 {
				t.Errorf("item %d: count=%d listed=%d", i, item.ContributorCount, len(item.Contributors))
			}
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		e := newTestEngine(t, socialFixture(), nil)
		_, err := e.Recommend(ctx, Request{Username: "nobody"})
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Recommend() error = %v, want ErrUserNotFound", err)
		}
		if _, errs := e.Stats(); errs != 1 {
			t.Errorf("error count = %d, want 1", errs)
		}
	})
}

func TestEngine_ExplainSimilarity(t *testing.T) {
	ctx := context.Background()
	store := socialFixture()
	e := newTestEngine(t, store, nil)

	t.Run("shared ratings listed", func(t *testing.T) {
		exp, err := e.ExplainSimilarity(ctx, "alice", "bob", 0)
		if err != nil {
			t.Fatalf("ExplainSimilarity() error = %v", err)
		}
		if exp.Score == nil || exp.Score.Similarity != 1.0 {
			t.Errorf("score = %+v, want similarity 1", exp.Score)
		}
		if exp.SharedRated != 4 || len(exp.Disagreements) != 4 {
			t.Fatalf("shared=%d disagreements=%d, want 4/4", exp.SharedRated, len(exp.Disagreements))
		}
		for i := 1; i < len(exp.Disagreements); i++ {
			if exp.Disagreements[i].Diff > exp.Disagreements[i-1].Diff {
				t.Errorf("disagreements not descending at %d", i)
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		exp, _ := e.ExplainSimilarity(ctx, "alice", "bob", 2)
		if len(exp.Disagreements) != 2 {
			t.Errorf("len = %d, want 2", len(exp.Disagreements))
		}
	})

	t.Run("rating stats fetched once for a followee", func(t *testing.T) {
		before := store.ratingStatsCalls.Load()
		if _, err := e.ExplainSimilarity(ctx, "alice", "carol", 0); err != nil {
			t.Fatalf("ExplainSimilarity() error = %v", err)
		}
		if got := store.ratingStatsCalls.Load() - before; got != 1 {
			t.Errorf("RatingStats calls = %d, want 1", got)
		}
	})

	t.Run("rating stats fetched for an unfollowed user", func(t *testing.T) {
		before := store.ratingStatsCalls.Load()
		if _, err := e.ExplainSimilarity(ctx, "alice", "dave", 0); err != nil {
			t.Fatalf("ExplainSimilarity() error = %v", err)
		}
		if got := store.ratingStatsCalls.Load() - before; got != 2 {
			t.Errorf("RatingStats calls = %d, want 2", got)
		}
	})

	t.Run("unfollowed user has no score", func(t *testing.T) {
		exp, err := e.ExplainSimilarity(ctx, "alice", "dave", 0)
		if err != nil {
			t.Fatalf("ExplainSimilarity() error = %v", err)
		}
		if exp.Score != nil || len(exp.Disagreements) != 0 {
			t.Errorf("explanation = %+v, want empty", exp)
		}
	})

	t.Run("unknown followee", func(t *testing.T) {
		_, err := e.ExplainSimilarity(ctx, "alice", "nobody", 0)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestEngine_StoreError(t *testing.T) {
	s := socialFixture()
	s.err = errors.New("connection refused")
	e := newTestEngine(t, s, nil)

	_, err := e.ComputeSocialScores(context.Background(), "alice", 0)
	if err == nil || !errors.Is(err, s.err) {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	e := newTestEngine(t, socialFixture(), nil)
	want, err := e.ComputeSocialScores(context.Background(), "alice", 0)
	if err != nil {
		t.Fatalf("ComputeSocialScores() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.ComputeSocialScores(context.Background(), "alice", 0)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(got, want) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
