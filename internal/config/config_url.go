// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package config

import (
	"fmt"
	"net/url"
)

// validateOrigin checks one CORS origin: "*" or a bare http(s) origin such
// as https://films.example.com:8443. Browsers send origins without a path,
// so one configured with a path would never match.
func validateOrigin(origin string) error {
	if origin == "*" {
		return nil
	}

	parsedURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("CORS_ORIGINS entry %q failed to parse: %w", origin, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("CORS_ORIGINS entry %q: scheme must be http or https", origin)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("CORS_ORIGINS entry %q: host is required", origin)
	}

	if parsedURL.Path != "" || parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("CORS_ORIGINS entry %q: origin must not contain a path, query or fragment", origin)
	}

	return nil
}
