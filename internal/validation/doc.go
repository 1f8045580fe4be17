// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package validation provides struct validation using go-playground/validator v10.

A single validator instance is built once and shared; it caches struct
metadata and is safe for concurrent use. Field names in errors come from
json tags so API clients see the names they sent.

Custom tags:
  - username: letters, digits and underscores
  - slug: lowercase words joined by single hyphens

Usage:

	type ingestUser struct {
	    Username string `json:"username" validate:"required,username,max=100"`
	}

	if verr := validation.ValidateStruct(&u); verr != nil {
	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
	    return
	}
*/
package validation
