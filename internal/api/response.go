// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/filmgraph/internal/logging"
	"github.com/tomtom215/filmgraph/internal/recommend"
	"github.com/tomtom215/filmgraph/internal/validation"
)

// APIResponse is the envelope for every JSON response.
//
// Success:
//
//	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "query_time_ms": 12}}
//
// Error:
//
//	{"status": "error", "data": null, "error": {"code": "NOT_FOUND", "message": "..."}, "metadata": {...}}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response timing and tracing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error code with a human message.
//
// Codes:
//   - VALIDATION_ERROR: bad query or path parameters
//   - NOT_FOUND: unknown user
//   - TIMEOUT: the store did not answer within the query timeout
//   - INTERNAL_ERROR: anything else
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, started time.Time) {
	writeEnvelope(w, status, &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// respondError writes an error envelope. err is logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", apiErr.Code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	writeEnvelope(w, status, &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: apiErr,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp *APIResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondEngineError maps engine and store errors to HTTP statuses.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.Is(err, recommend.ErrUserNotFound):
		respondError(w, r, http.StatusNotFound, &APIError{Code: "NOT_FOUND", Message: userNotFoundMessage(err)}, nil)
	case errors.As(err, &verr):
		respondValidationError(w, r, verr)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, &APIError{Code: "TIMEOUT", Message: "Query timed out"}, err)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		logging.Ctx(r.Context()).Debug().Msg("request canceled")
	default:
		respondError(w, r, http.StatusInternalServerError, &APIError{Code: "INTERNAL_ERROR", Message: "Internal server error"}, err)
	}
}

// respondValidationError sends VALIDATION_ERROR with per-field details.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	respondError(w, r, http.StatusBadRequest, &APIError{
		Code:    "VALIDATION_ERROR",
		Message: verr.Error(),
		Details: verr.Details(),
	}, nil)
}

// badRequest sends VALIDATION_ERROR for a malformed parameter.
func badRequest(w http.ResponseWriter, r *http.Request, field, message string) {
	respondError(w, r, http.StatusBadRequest, &APIError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: map[string]any{"field": field},
	}, nil)
}

// userNotFoundMessage extracts the `user "x"` fragment from a wrapped
// ErrUserNotFound so internal wrapping context is not echoed to clients.
func userNotFoundMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "user \""); i >= 0 {
		return msg[i:]
	}
	return recommend.ErrUserNotFound.Error()
}

// sanitizeLogValue escapes control characters so request data cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
