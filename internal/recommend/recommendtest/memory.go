// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

// Package recommendtest provides an in-memory recommend.Store for tests of
// packages that sit above the engine.
package recommendtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tomtom215/filmgraph/internal/recommend"
)

type interaction struct {
	rating    *float64
	watched   bool
	watchlist bool
}

// MemoryStore implements recommend.Store over maps with the same query
// semantics as the DuckDB store. It is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[int]recommend.User
	films        map[int]recommend.Film
	interactions map[int]map[int]interaction
	follows      map[int][]int

	// Err, when set, is returned by every query.
	Err error

	// PingErr is returned by Ping.
	PingErr error
}

var _ recommend.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        map[int]recommend.User{},
		films:        map[int]recommend.Film{},
		interactions: map[int]map[int]interaction{},
		follows:      map[int][]int{},
	}
}

// AddUser registers a user.
func (s *MemoryStore) AddUser(id int, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = recommend.User{ID: id, Username: username}
}

// AddFilm registers a film. year 0 means unknown.
func (s *MemoryStore) AddFilm(id int, title string, year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := recommend.Film{ID: id, Title: title}
	if year != 0 {
		f.Year = &year
	}
	s.films[id] = f
}

// Follow records that src follows dst.
func (s *MemoryStore) Follow(src, dst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows[src] = append(s.follows[src], dst)
}

// Watch marks a film watched. rating 0 means unrated.
func (s *MemoryStore) Watch(user, film int, rating float64) {
	in := interaction{watched: true}
	if rating > 0 {
		in.rating = &rating
	}
	s.set(user, film, in)
}

// Watchlist marks a film watchlisted and unwatched.
func (s *MemoryStore) Watchlist(user, film int) {
	s.set(user, film, interaction{watchlist: true})
}

func (s *MemoryStore) set(user, film int, in interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interactions[user] == nil {
		s.interactions[user] = map[int]interaction{}
	}
	s.interactions[user][film] = in
}

func (s *MemoryStore) filmsOf(user int) []int {
	ids := make([]int, 0, len(s.interactions[user]))
	for id := range s.interactions[user] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Ping implements the health check contract.
func (s *MemoryStore) Ping(context.Context) error {
	return s.PingErr
}

// UserByName implements recommend.Store.
func (s *MemoryStore) UserByName(ctx context.Context, username string) (recommend.User, error) {
	if err := s.check(ctx); err != nil {
		return recommend.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return recommend.User{}, fmt.Errorf("user %q: %w", username, recommend.ErrUserNotFound)
}

// UserNames implements recommend.Store.
func (s *MemoryStore) UserNames(ctx context.Context, ids []int) (map[int]recommend.User, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[int]recommend.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// SocialRows implements recommend.Store.
func (s *MemoryStore) SocialRows(ctx context.Context, rootID int) ([]recommend.SocialRow, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []recommend.SocialRow
	for _, f := range s.follows[rootID] {
		for _, filmID := range s.filmsOf(f) {
			in := s.interactions[f][filmID]
			if (!in.watched && !in.watchlist) || s.interactions[rootID][filmID].watched {
				continue
			}
			rows = append(rows, recommend.SocialRow{
				Film:       s.films[filmID],
				FolloweeID: f,
				Watched:    in.watched,
				Watchlist:  in.watchlist,
				Rating:     in.rating,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Film.ID < rows[j].Film.ID })
	return rows, nil
}

// SimilarityRows implements recommend.Store.
func (s *MemoryStore) SimilarityRows(ctx context.Context, rootID int) ([]recommend.SimilarityRow, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []recommend.SimilarityRow
	for _, f := range s.follows[rootID] {
		row := recommend.SimilarityRow{FolloweeID: f}
		var sum float64
		for _, filmID := range s.filmsOf(rootID) {
			mine, theirs := s.interactions[rootID][filmID], s.interactions[f][filmID]
			if !mine.watched || !theirs.watched {
				continue
			}
			row.Overlap++
			if mine.rating != nil && theirs.rating != nil {
				row.RatedOverlap++
				sum += math.Abs(*mine.rating - *theirs.rating)
			}
		}
		if row.Overlap == 0 {
			continue
		}
		if row.RatedOverlap > 0 {
			avg := sum / float64(row.RatedOverlap)
			row.AvgAbsRatingDiff = &avg
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WatchedCount implements recommend.Store.
func (s *MemoryStore) WatchedCount(ctx context.Context, userID int) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watched(userID), nil
}

func (s *MemoryStore) watched(userID int) int {
	n := 0
	for _, in := range s.interactions[userID] {
		if in.watched {
			n++
		}
	}
	return n
}

// FolloweeWatchedCounts implements recommend.Store.
func (s *MemoryStore) FolloweeWatchedCounts(ctx context.Context, ids []int) (map[int]int, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[int]int{}
	for _, id := range ids {
		out[id] = s.watched(id)
	}
	return out, nil
}

// RatingStats implements recommend.Store.
func (s *MemoryStore) RatingStats(ctx context.Context, ids []int) (map[int]recommend.RatingStats, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[int]recommend.RatingStats{}
	for _, id := range ids {
		var ratings []float64
		for _, filmID := range s.filmsOf(id) {
			if r := s.interactions[id][filmID].rating; r != nil {
				ratings = append(ratings, *r)
			}
		}
		if len(ratings) < 2 {
			continue
		}
		var sum, sq float64
		for _, r := range ratings {
			sum += r
		}
		mean := sum / float64(len(ratings))
		for _, r := range ratings {
			sq += (r - mean) * (r - mean)
		}
		if std := math.Sqrt(sq / float64(len(ratings))); std > 0 {
			out[id] = recommend.RatingStats{Mean: mean, Std: std}
		}
	}
	return out, nil
}

// SharedRatings implements recommend.Store.
func (s *MemoryStore) SharedRatings(ctx context.Context, rootID int, followeeIDs []int) ([]recommend.SharedRating, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []recommend.SharedRating
	for _, f := range followeeIDs {
		for _, filmID := range s.filmsOf(rootID) {
			mine, theirs := s.interactions[rootID][filmID], s.interactions[f][filmID]
			if mine.watched && theirs.watched && mine.rating != nil && theirs.rating != nil {
				out = append(out, recommend.SharedRating{FolloweeID: f, RootRating: *mine.rating, FolloweeRating: *theirs.rating})
			}
		}
	}
	return out, nil
}

// RootWatchlist implements recommend.Store.
func (s *MemoryStore) RootWatchlist(ctx context.Context, rootID int) ([]recommend.Film, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []recommend.Film
	for _, filmID := range s.filmsOf(rootID) {
		if in := s.interactions[rootID][filmID]; in.watchlist && !in.watched {
			out = append(out, s.films[filmID])
		}
	}
	return out, nil
}

// SharedRatedFilms implements recommend.Store.
func (s *MemoryStore) SharedRatedFilms(ctx context.Context, rootID, followeeID int) ([]recommend.SharedRatedFilm, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []recommend.SharedRatedFilm
	for _, filmID := range s.filmsOf(rootID) {
		mine, theirs := s.interactions[rootID][filmID], s.interactions[followeeID][filmID]
		if mine.watched && theirs.watched && mine.rating != nil && theirs.rating != nil {
			out = append(out, recommend.SharedRatedFilm{Film: s.films[filmID], RootRating: *mine.rating, FolloweeRating: *theirs.rating})
		}
	}
	return out, nil
}

func (s *MemoryStore) check(ctx context.Context) error {
	if s.Err != nil {
		return s.Err
	}
	return ctx.Err()
}

// Fixture returns a small graph used across packages:
//
//	alice(1) follows bob(2), carol(3) and dave(4)
//	alice watched films 1..3; bob agrees with her, carol disagrees
//	dave only watched film 1, unrated
//	bob watched film 10 (rated 5) and watchlisted 11
//	carol watched film 12 (rated 1)
//	alice watchlisted film 20
func Fixture() *MemoryStore {
	s := NewMemoryStore()
	s.AddUser(1, "alice")
	s.AddUser(2, "bob")
	s.AddUser(3, "carol")
	s.AddUser(4, "dave")
	s.Follow(1, 2)
	s.Follow(1, 3)
	s.Follow(1, 4)

	for id, title := range map[int]string{1: "Heat", 2: "Alien", 3: "Up", 10: "Jaws", 11: "Brazil", 12: "Cats", 20: "Ran"} {
		s.AddFilm(id, title, 1990)
	}

	s.Watch(1, 1, 5)
	s.Watch(1, 2, 3)
	s.Watch(1, 3, 1)
	s.Watchlist(1, 20)

	s.Watch(2, 1, 4.5)
	s.Watch(2, 2, 3)
	s.Watch(2, 3, 1.5)
	s.Watch(2, 10, 5)
	s.Watchlist(2, 11)

	s.Watch(3, 1, 1)
	s.Watch(3, 2, 3)
	s.Watch(3, 3, 5)
	s.Watch(3, 12, 1)

	s.Watch(4, 1, 0)
	return s
}
