// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages.
// The Store interface allows integration with the database package
// without creating circular imports.

// Engine computes social similarities and recommendation scores.
// It holds no per-user state and is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	store  Store

	// now stamps responses and supplies the current year when
	// Config.Time.ReferenceYear is zero.
	now func() time.Time

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for response timestamps and the
// current year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new scoring engine over store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(store Store, cfg *Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Stats reports request and error counts since creation.
func (e *Engine) Stats() (requests, errs int64) {
	return e.requestCount.Load(), e.errorCount.Load()
}

// CurrentYear is the reference year used for time decay.
func (e *Engine) CurrentYear() int {
	if e.config.Time.ReferenceYear > 0 {
		return e.config.Time.ReferenceYear
	}
	return e.now().Year()
}

// ComputeSimilarityScores returns the root's followees by descending similarity.
func (e *Engine) ComputeSimilarityScores(ctx context.Context, username string) ([]SimilarityScore, error) {
	e.requestCount.Add(1)
	ws, err := e.load(ctx, username, false)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	scores := ws.similarities
	sortSimilarities(scores)
	e.logger.Debug().
		Str("username", username).
		Int("followees", len(scores)).
		Msg("computed similarity scores")
	return scores, nil
}

// ComputeSocialScores ranks candidate films for the root by descending score
// using the configured mode. A limit of zero or less returns every film.
func (e *Engine) ComputeSocialScores(ctx context.Context, username string, limit int) ([]ScoredItem, error) {
	items, err := e.score(ctx, username, "")
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// ComputeSocialContributions breaks the requested films' multiplicative
// scores down per contributor, each list in descending contribution order.
func (e *Engine) ComputeSocialContributions(ctx context.Context, username string, filmIDs []int) (map[int][]Contribution, error) {
	return e.contributions(ctx, username, filmIDs, ModeMultiplicative)
}

// ComputeSocialContributionsNormalized is ComputeSocialContributions for
// normalized mode. Each contribution carries its interaction z-score.
func (e *Engine) ComputeSocialContributionsNormalized(ctx context.Context, username string, filmIDs []int) (map[int][]Contribution, error) {
	return e.contributions(ctx, username, filmIDs, ModeNormalized)
}

func (e *Engine) contributions(ctx context.Context, username string, filmIDs []int, mode Mode) (map[int][]Contribution, error) {
	if len(filmIDs) == 0 {
		return map[int][]Contribution{}, nil
	}
	e.requestCount.Add(1)
	ws, err := e.load(ctx, username, true)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	rows := e.scoreRows(ws)
	e.config.strategyFor(mode).Combine(rows)
	return contributions(rows, filmIDs), nil
}

// Recommend ranks films for req.Username and optionally explains the top ones.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	e.requestCount.Add(1)
	ws, err := e.load(ctx, req.Username, true)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	strategy := e.config.strategyFor(req.Mode)
	rows := e.scoreRows(ws)
	strategy.Combine(rows)
	items := aggregate(rows)
	total := len(items)

	if req.Order == SortAscending {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Score < items[j].Score
		})
	}
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}

	recs := make([]Recommendation, len(items))
	for i, item := range items {
		recs[i] = Recommendation{ScoredItem: item, Rank: i + 1}
	}
	e.explain(recs, rows, req.ExplainTop)

	resp := &Response{
		Username:        ws.root.Username,
		Items:           recs,
		TotalCandidates: total,
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			Mode:        strategy.Mode(),
			Order:       req.Order,
			Followees:   len(ws.similarities),
			CurrentYear: ws.currentYear,
			LatencyMS:   time.Since(start).Milliseconds(),
			Timestamp:   e.now(),
		},
	}

	logger.Debug().
		Int("candidates", total).
		Int("returned", len(recs)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")
	return resp, nil
}

// ExplainSimilarity lists the films on which root and followee disagree most,
// measured in each user's own rating z-scores. A limit of zero or less uses
// Config.Limits.DisagreementLimit.
func (e *Engine) ExplainSimilarity(ctx context.Context, username, followee string, limit int) (*SimilarityExplanation, error) {
	if limit <= 0 {
		limit = e.config.Limits.DisagreementLimit
	}
	e.requestCount.Add(1)

	ws, err := e.load(ctx, username, false)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	other, err := e.store.UserByName(ctx, followee)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("get followee %q: %w", followee, err)
	}

	stats := ws.stats
	if stats == nil {
		stats = map[int]RatingStats{}
	}
	if _, ok := stats[other.ID]; !ok {
		extra, err := e.store.RatingStats(ctx, []int{other.ID})
		if err != nil {
			e.errorCount.Add(1)
			return nil, fmt.Errorf("get rating stats: %w", err)
		}
		if st, ok := extra[other.ID]; ok {
			stats[other.ID] = st
		}
	}
	shared, err := e.store.SharedRatedFilms(ctx, ws.root.ID, other.ID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("get shared rated films: %w", err)
	}

	out := &SimilarityExplanation{
		Root:          ws.root,
		Followee:      other,
		SharedRated:   len(shared),
		Disagreements: []Disagreement{},
	}
	for i := range ws.similarities {
		if ws.similarities[i].FolloweeID == other.ID {
			s := ws.similarities[i]
			out.Score = &s
			break
		}
	}

	for _, s := range shared {
		z1, ok1 := ratingZ(stats, ws.root.ID, s.RootRating)
		z2, ok2 := ratingZ(stats, other.ID, s.FolloweeRating)
		if !ok1 || !ok2 {
			continue
		}
		diff := z1 - z2
		if diff < 0 {
			diff = -diff
		}
		out.Disagreements = append(out.Disagreements, Disagreement{
			Film:           s.Film,
			RootRating:     s.RootRating,
			FolloweeRating: s.FolloweeRating,
			RootZ:          z1,
			FolloweeZ:      z2,
			Diff:           diff,
		})
	}
	sort.SliceStable(out.Disagreements, func(i, j int) bool {
		return out.Disagreements[i].Diff > out.Disagreements[j].Diff
	})
	if len(out.Disagreements) > limit {
		out.Disagreements = out.Disagreements[:limit]
	}
	return out, nil
}

// score loads the working set, combines it with mode and ranks the films.
func (e *Engine) score(ctx context.Context, username string, mode Mode) ([]ScoredItem, error) {
	e.requestCount.Add(1)
	ws, err := e.load(ctx, username, true)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	rows := e.scoreRows(ws)
	strategy := e.config.strategyFor(mode)
	strategy.Combine(rows)
	items := aggregate(rows)

	e.logger.Debug().
		Str("username", username).
		Str("mode", string(strategy.Mode())).
		Int("rows", len(rows)).
		Int("films", len(items)).
		Msg("computed social scores")
	return items, nil
}

// scoreRows turns followee interactions and the root's watchlist into
// uncombined rows. Rows without signal are dropped.
func (e *Engine) scoreRows(ws *workingSet) []ScoreRow {
	cfg := e.config
	rows := make([]ScoreRow, 0, len(ws.social)+len(ws.watchlist))

	for i := range ws.social {
		s := &ws.social[i]
		in := InteractionInput{Watched: s.Watched, Watchlist: s.Watchlist, Rating: s.Rating}
		if st, ok := ws.stats[s.FolloweeID]; ok {
			in.Stats = &st
		}
		weight := cfg.Ratings.InteractionWeight(in)
		if weight == 0 {
			continue
		}
		sim, ok := ws.simMap[s.FolloweeID]
		if !ok {
			sim = cfg.Similarity.DefaultSimilarity
		}
		rows = append(rows, ScoreRow{
			Film: s.Film,
			Contributor: Followee{
				ID:         s.FolloweeID,
				Username:   ws.username(s.FolloweeID),
				Similarity: sim,
			},
			Similarity:        sim,
			InteractionWeight: weight,
			TimeWeight:        cfg.Time.timeWeight(s.Film.Year, ws.currentYear),
		})
	}

	for _, f := range ws.watchlist {
		rows = append(rows, ScoreRow{
			Film:              f,
			Contributor:       RootWatchlist{},
			Similarity:        cfg.Similarity.SelfWeight,
			InteractionWeight: cfg.Ratings.WatchlistWeight(),
			TimeWeight:        cfg.Time.timeWeight(f.Year, ws.currentYear),
		})
	}
	return rows
}

// explain attaches the strongest contributions to the first n recommendations.
func (e *Engine) explain(recs []Recommendation, rows []ScoreRow, n int) {
	if n <= 0 || len(recs) == 0 {
		return
	}
	n = min(n, len(recs))
	ids := make([]int, n)
	for i := range n {
		ids[i] = recs[i].Film.ID
	}
	byFilm := contributions(rows, ids)
	for i := range n {
		list := byFilm[recs[i].Film.ID]
		recs[i].ContributorCount = len(list)
		recs[i].Contributors = list[:min(len(list), e.config.Limits.ExplainContributors)]
	}
}

// prepareRequest applies defaults and generates request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.Limit <= 0 {
		req.Limit = e.config.Limits.DefaultLimit
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}
	if req.Order != SortAscending {
		req.Order = SortDescending
	}
	if req.Mode == "" {
		req.Mode = e.config.DefaultMode()
	}
	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("username", req.Username).
		Str("mode", string(req.Mode)).
		Str("order", string(req.Order)).
		Logger()
}
