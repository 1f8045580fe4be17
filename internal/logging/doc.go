// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package logging provides the process-wide zerolog logger for filmgraph.

Call Init once from main with values from config.LoggingConfig. Before that,
a JSON info-level logger on stderr is active. FILMGRAPH_QUIET=1 disables
output entirely, which keeps benchmark and fuzz runs clean.

	logging.Init(logging.Config{Level: "debug", Format: "console", Timestamp: true})
	logging.Info().Str("path", cfg.Database.Path).Msg("Opening database")

Request-scoped logging goes through the context helpers. The API's request
ID middleware stores the id with ContextWithRequestID and handlers log with
Ctx(ctx), which adds request_id and correlation_id fields.

Libraries that want *slog.Logger (sutureslog in the supervisor tree) get one
from NewSlogLogger, which routes records back into zerolog.

Always terminate event chains with Msg or Send; an unterminated event is
never written.
*/
package logging
