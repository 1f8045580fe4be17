// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

/*
Package supervisor runs the long-lived parts of `filmgraph serve` under
suture v4.

# Tree

	RootSupervisor ("filmgraph")
	├── DataSupervisor ("data-layer")
	│   └── CheckpointService (if DUCKDB_CHECKPOINT_INTERVAL > 0)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures independently, so a checkpoint loop that keeps
failing backs off without restarting the HTTP server.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewCheckpointService(db, cfg.Database.CheckpointInterval, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))
	return tree.Serve(ctx)

Supervisor events (restarts, backoff, unstopped services) are logged
through sutureslog, which the logging package bridges to zerolog.

# Failure Handling

Failures decay exponentially over FailureDecay seconds. Once the counter
passes FailureThreshold the supervisor waits FailureBackoff before the
next restart. A service that returns nil is not restarted.

DuckDB itself is not supervised: it is an embedded library owned by the
database package and a crash inside it ends the process anyway.
*/
package supervisor
