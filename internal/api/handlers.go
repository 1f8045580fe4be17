// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/filmgraph/internal/logging"
	"github.com/tomtom215/filmgraph/internal/metrics"
	"github.com/tomtom215/filmgraph/internal/recommend"
	"github.com/tomtom215/filmgraph/internal/validation"
)

// Pinger reports store liveness. *database.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the scoring and health endpoints.
type Handler struct {
	engine    *recommend.Engine
	store     Pinger
	version   string
	startTime time.Time
}

// NewHandler creates a handler. store may be nil, in which case health
// reports the database as disconnected.
func NewHandler(engine *recommend.Engine, store Pinger, version string) *Handler {
	return &Handler{
		engine:    engine,
		store:     store,
		version:   version,
		startTime: time.Now(),
	}
}

// SimilaritiesResponse lists the root's followees by descending similarity.
type SimilaritiesResponse struct {
	Username  string                      `json:"username"`
	Followees []recommend.SimilarityScore `json:"followees"`
}

// FilmContributions is one requested film's contribution breakdown.
type FilmContributions struct {
	FilmID        int                      `json:"film_id"`
	Score         float64                  `json:"score"`
	Contributions []recommend.Contribution `json:"contributions"`
}

// ContributionsResponse answers GET .../contributions.
type ContributionsResponse struct {
	Username string              `json:"username"`
	Mode     recommend.Mode      `json:"mode"`
	Films    []FilmContributions `json:"films"`
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
	Requests          int64   `json:"scoring_requests"`
	Errors            int64   `json:"scoring_errors"`
}

// Similarities handles GET /api/v1/users/{username}/similarities.
func (h *Handler) Similarities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.usernameParam(w, r, "username")
	if !ok {
		return
	}

	scores, err := h.engine.ComputeSimilarityScores(r.Context(), username)
	metrics.RecordScoring("similarities", "", time.Since(start), err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if scores == nil {
		scores = []recommend.SimilarityScore{}
	}
	respondJSON(w, r, http.StatusOK, SimilaritiesResponse{Username: username, Followees: scores}, start)
}

// Recommendations handles GET /api/v1/users/{username}/recommendations.
//
// Query parameters: limit, order (asc|desc), mode (multiplicative|normalized),
// explain_top.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	limit, ok := intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	explainTop, ok := intParam(w, r, "explain_top", 0)
	if !ok {
		return
	}

	req := recommend.Request{
		Username:   chi.URLParam(r, "username"),
		Limit:      limit,
		Order:      recommend.SortOrder(lowerTrim(q.Get("order"))),
		Mode:       recommend.Mode(lowerTrim(q.Get("mode"))),
		ExplainTop: explainTop,
		RequestID:  logging.RequestIDFromContext(r.Context()),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	mode := string(req.Mode)
	if resp != nil {
		mode = string(resp.Metadata.Mode)
	}
	metrics.RecordScoring("recommendations", mode, time.Since(start), err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	metrics.RecordScoringSize(resp.TotalCandidates, resp.Metadata.Followees)
	respondJSON(w, r, http.StatusOK, resp, start)
}

// Contributions handles GET /api/v1/users/{username}/contributions?film_ids=1,2&mode=.
func (h *Handler) Contributions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.usernameParam(w, r, "username")
	if !ok {
		return
	}

	filmIDs, ok := filmIDsParam(w, r)
	if !ok {
		return
	}

	mode, err := recommend.ParseMode(lowerTrim(r.URL.Query().Get("mode")))
	if err != nil {
		badRequest(w, r, "mode", "mode must be one of: multiplicative normalized")
		return
	}
	if mode == "" {
		mode = h.engine.Config().DefaultMode()
	}

	var byFilm map[int][]recommend.Contribution
	if mode == recommend.ModeNormalized {
		byFilm, err = h.engine.ComputeSocialContributionsNormalized(r.Context(), username, filmIDs)
	} else {
		byFilm, err = h.engine.ComputeSocialContributions(r.Context(), username, filmIDs)
	}
	metrics.RecordScoring("contributions", string(mode), time.Since(start), err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	resp := ContributionsResponse{Username: username, Mode: mode, Films: make([]FilmContributions, 0, len(filmIDs))}
	for _, id := range filmIDs {
		list := byFilm[id]
		if list == nil {
			list = []recommend.Contribution{}
		}
		fc := FilmContributions{FilmID: id, Contributions: list}
		for _, c := range list {
			fc.Score += c.Contribution
		}
		resp.Films = append(resp.Films, fc)
	}
	respondJSON(w, r, http.StatusOK, resp, start)
}

// ExplainSimilarity handles GET /api/v1/users/{username}/similarities/{followee}/explain.
func (h *Handler) ExplainSimilarity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	username, ok := h.usernameParam(w, r, "username")
	if !ok {
		return
	}
	followee, ok := h.usernameParam(w, r, "followee")
	if !ok {
		return
	}
	limit, ok := intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	if limit < 0 || limit > maxExplainLimit {
		badRequest(w, r, "limit", "limit must be between 0 and 100")
		return
	}

	explanation, err := h.engine.ExplainSimilarity(r.Context(), username, followee, limit)
	metrics.RecordScoring("explain", "", time.Since(start), err)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, explanation, start)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	connected := h.databaseConnected(r.Context())

	status := "healthy"
	if !connected {
		status = "degraded"
	}
	health := HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: connected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.engine != nil {
		health.Requests, health.Errors = h.engine.Stats()
	}
	respondJSON(w, r, http.StatusOK, health, start)
}

// HealthLive handles GET /api/v1/health/live. It never touches the store.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready: 503 until the store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.databaseConnected(r.Context()) {
		respondError(w, r, http.StatusServiceUnavailable, &APIError{Code: "NOT_READY", Message: "Database unavailable"}, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, start)
}

func (h *Handler) databaseConnected(ctx context.Context) bool {
	if h.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.store.Ping(ctx) == nil
}
