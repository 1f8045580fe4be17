// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/filmgraph/internal/recommend"
	"github.com/tomtom215/filmgraph/internal/recommend/recommendtest"
)

// envelope mirrors APIResponse with raw data for per-test decoding.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

func newTestServer(t *testing.T, store *recommendtest.MemoryStore, mwCfg *ChiMiddlewareConfig) http.Handler {
	t.Helper()
	cfg := recommend.DefaultConfig()
	cfg.Time.ReferenceYear = 2025
	engine, err := recommend.NewEngine(store, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if mwCfg == nil {
		mwCfg = DefaultChiMiddlewareConfig()
		mwCfg.RateLimitDisabled = true
	}
	return NewRouter(NewHandler(engine, store, "test"), NewChiMiddleware(mwCfg)).SetupChi()
}

func doGet(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v\n%s", target, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestSimilarities(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	rec, env := doGet(t, h, "/api/v1/users/alice/similarities")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" || env.Metadata.RequestID == "" {
		t.Errorf("envelope = %+v", env)
	}
	if rec.Header().Get("X-Request-ID") != env.Metadata.RequestID {
		t.Error("metadata request id should match the X-Request-ID header")
	}

	var data SimilaritiesResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Followees) != 3 {
		t.Fatalf("followees = %+v", data.Followees)
	}
	if data.Followees[0].Username != "bob" || data.Followees[0].Similarity != 1 {
		t.Errorf("top followee = %+v, want bob at 1.0", data.Followees[0])
	}
	if last := data.Followees[2]; last.Username != "dave" || last.Similarity != 0 {
		t.Errorf("last followee = %+v, want dave at 0", last)
	}
}

func TestRecommendations(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	tests := []struct {
		name      string
		query     string
		wantFirst int
		wantLen   int
	}{
		{name: "own watchlist leads", query: "", wantFirst: 20, wantLen: 4},
		{name: "ascending puts negative first", query: "?order=asc", wantFirst: 12, wantLen: 4},
		{name: "limit", query: "?limit=1", wantFirst: 20, wantLen: 1},
		{name: "normalized mode", query: "?mode=normalized&limit=10", wantLen: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doGet(t, h, "/api/v1/users/alice/recommendations"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp recommend.Response
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Items) != tt.wantLen {
				t.Fatalf("items = %d, want %d: %+v", len(resp.Items), tt.wantLen, resp.Items)
			}
			if tt.wantFirst != 0 && resp.Items[0].ID != tt.wantFirst {
				t.Errorf("first film = %d, want %d", resp.Items[0].ID, tt.wantFirst)
			}
			for _, it := range resp.Items {
				if it.ID >= 1 && it.ID <= 3 {
					t.Errorf("watched film %d recommended", it.ID)
				}
			}
			if resp.TotalCandidates != 4 {
				t.Errorf("total candidates = %d, want 4", resp.TotalCandidates)
			}
		})
	}
}

func TestRecommendations_ExplainTop(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	rec, env := doGet(t, h, "/api/v1/users/alice/recommendations?explain_top=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp recommend.Response
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items[0].Contributors) == 0 || resp.Items[0].ContributorCount == 0 {
		t.Errorf("first item should be explained: %+v", resp.Items[0])
	}
	if len(resp.Items[2].Contributors) != 0 {
		t.Errorf("third item should not be explained: %+v", resp.Items[2])
	}
}

func TestRecommendations_BadParams(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	tests := []struct {
		name  string
		query string
	}{
		{"non-integer limit", "?limit=ten"},
		{"negative limit", "?limit=-1"},
		{"unknown order", "?order=sideways"},
		{"unknown mode", "?mode=magic"},
		{"explain too large", "?explain_top=1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doGet(t, h, "/api/v1/users/alice/recommendations"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v", env.Error)
			}
		})
	}
}

func TestUnknownUser(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	for _, path := range []string{
		"/api/v1/users/nobody/similarities",
		"/api/v1/users/nobody/recommendations",
		"/api/v1/users/nobody/contributions?film_ids=10",
		"/api/v1/users/alice/similarities/nobody/explain",
	} {
		t.Run(path, func(t *testing.T) {
			rec, env := doGet(t, h, path)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "NOT_FOUND" || !strings.Contains(env.Error.Message, `"nobody"`) {
				t.Errorf("error = %+v", env.Error)
			}
		})
	}
}

func TestInvalidUsername(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	rec, _ := doGet(t, h, "/api/v1/users/bad%20name/similarities")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestContributions(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	rec, env := doGet(t, h, "/api/v1/users/alice/contributions?film_ids=10,12,10,999&mode=normalized")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp ContributionsResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mode != recommend.ModeNormalized {
		t.Errorf("mode = %q", resp.Mode)
	}
	if len(resp.Films) != 3 {
		t.Fatalf("films = %+v, want 10, 12, 999", resp.Films)
	}
	if resp.Films[0].FilmID != 10 || len(resp.Films[0].Contributions) != 1 {
		t.Errorf("film 10 = %+v", resp.Films[0])
	}
	if resp.Films[0].Contributions[0].Username != "bob" {
		t.Errorf("film 10 contributor = %+v", resp.Films[0].Contributions[0])
	}
	if resp.Films[2].FilmID != 999 || len(resp.Films[2].Contributions) != 0 {
		t.Errorf("unknown film should have no contributions: %+v", resp.Films[2])
	}

	for _, q := range []string{"", "?film_ids=", "?film_ids=a,b", "?film_ids=0", "?film_ids=1&mode=other"} {
		rec, _ := doGet(t, h, "/api/v1/users/alice/contributions"+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q status = %d, want 400", q, rec.Code)
		}
	}
}

func TestExplainSimilarity(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	rec, env := doGet(t, h, "/api/v1/users/alice/similarities/carol/explain?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp recommend.SimilarityExplanation
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Followee.Username != "carol" || resp.SharedRated != 3 {
		t.Errorf("explanation = %+v", resp)
	}
	if len(resp.Disagreements) != 2 {
		t.Fatalf("disagreements = %d, want 2", len(resp.Disagreements))
	}
	if resp.Disagreements[0].Diff < resp.Disagreements[1].Diff {
		t.Error("disagreements should be ordered by descending diff")
	}

	rec, _ = doGet(t, h, "/api/v1/users/alice/similarities/carol/explain?limit=500")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=500 status = %d, want 400", rec.Code)
	}
}

func TestStoreFailure(t *testing.T) {
	store := recommendtest.Fixture()
	store.Err = errors.New("disk on fire")
	h := newTestServer(t, store, nil)

	rec, env := doGet(t, h, "/api/v1/users/alice/recommendations")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if env.Error == nil || strings.Contains(env.Error.Message, "disk") {
		t.Errorf("internal error details must not leak: %+v", env.Error)
	}

	store.Err = context.DeadlineExceeded
	rec, _ = doGet(t, h, "/api/v1/users/alice/recommendations")
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("deadline status = %d, want 504", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	store := recommendtest.Fixture()
	h := newTestServer(t, store, nil)

	rec, env := doGet(t, h, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health HealthStatus
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || !health.DatabaseConnected || health.Version != "test" {
		t.Errorf("health = %+v", health)
	}

	rec, _ = doGet(t, h, "/api/v1/health/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	store.PingErr = errors.New("down")
	rec, _ = doGet(t, h, "/api/v1/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
	_, env = doGet(t, h, "/api/v1/health")
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "degraded" {
		t.Errorf("status = %q, want degraded", health.Status)
	}

	rec, _ = doGet(t, h, "/api/v1/health/live")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200 regardless of store", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	h := newTestServer(t, recommendtest.Fixture(), cfg)

	var last *httptest.ResponseRecorder
	var env envelope
	for range 3 {
		last, env = doGet(t, h, "/api/v1/users/alice/similarities")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRoutes_NotFoundAndMetrics(t *testing.T) {
	h := newTestServer(t, recommendtest.Fixture(), nil)

	rec, env := doGet(t, h, "/api/v1/nothing")
	if rec.Code != http.StatusNotFound || env.Error == nil {
		t.Errorf("unknown route = %d %+v", rec.Code, env.Error)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/similarities", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "filmgraph_api_requests_total") {
		t.Errorf("metrics endpoint should expose filmgraph series, got %d", rec.Code)
	}
}

func TestDeadline(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RequestTimeout: 50 * time.Millisecond})
	var hasDeadline bool
	handler := mw.Deadline()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !hasDeadline {
		t.Error("Deadline() should set a context deadline")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
