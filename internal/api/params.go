// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/filmgraph/internal/validation"
)

const (
	// maxFilmIDs bounds the contributions query.
	maxFilmIDs = 500
	// maxExplainLimit bounds the disagreement list.
	maxExplainLimit = 100
)

// userParam validates a username path segment.
type userParam struct {
	Username string `json:"username" validate:"required,username,max=100"`
}

// usernameParam reads and validates a chi URL parameter holding a username.
func (h *Handler) usernameParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	p := userParam{Username: chi.URLParam(r, name)}
	if verr := validation.ValidateStruct(&p); verr != nil {
		badRequest(w, r, name, strings.Replace(verr.Error(), "username", name, 1))
		return "", false
	}
	return p.Username, true
}

// intParam parses an optional integer query parameter. Malformed values
// are rejected rather than silently defaulted.
func intParam(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(w, r, key, fmt.Sprintf("%s must be an integer", key))
		return 0, false
	}
	return v, true
}

// filmIDsParam parses the required comma-separated film_ids parameter,
// dropping duplicates while keeping order.
func filmIDsParam(w http.ResponseWriter, r *http.Request) ([]int, bool) {
	raw := r.URL.Query().Get("film_ids")
	if strings.TrimSpace(raw) == "" {
		badRequest(w, r, "film_ids", "film_ids is required")
		return nil, false
	}

	seen := map[int]struct{}{}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			badRequest(w, r, "film_ids", fmt.Sprintf("invalid film id %q", part))
			return nil, false
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		badRequest(w, r, "film_ids", "film_ids is required")
		return nil, false
	}
	if len(ids) > maxFilmIDs {
		badRequest(w, r, "film_ids", fmt.Sprintf("film_ids must list at most %d ids", maxFilmIDs))
		return nil, false
	}
	return ids, true
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
