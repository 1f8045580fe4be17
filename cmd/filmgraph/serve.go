// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/filmgraph/internal/api"
	"github.com/tomtom215/filmgraph/internal/logging"
	"github.com/tomtom215/filmgraph/internal/supervisor"
	"github.com/tomtom215/filmgraph/internal/supervisor/services"
)

// writeTimeoutSlack lets the request deadline fire and a 504 be written
// before the server drops the connection.
const writeTimeoutSlack = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Start the HTTP API under a suture supervisor tree.

The server listens on HTTP_HOST:HTTP_PORT (default 0.0.0.0:3857) and stops
gracefully on SIGINT or SIGTERM, draining requests for up to
HTTP_SHUTDOWN_TIMEOUT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	engine, err := a.engine()
	if err != nil {
		return err
	}
	logger := logging.WithComponent("server")

	handler := api.NewHandler(engine, a.db, Version)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(&a.cfg.Server)))

	server := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.Timeout,
		WriteTimeout:      a.cfg.Server.Timeout + writeTimeoutSlack,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfigFrom(&a.cfg.Supervisor))
	if err != nil {
		return err
	}
	if interval := a.cfg.Database.CheckpointInterval; interval > 0 {
		tree.AddDataService(services.NewCheckpointService(a.db, interval, logging.WithComponent("database")))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.ShutdownTimeout, logger))

	logger.Info().
		Str("addr", server.Addr).
		Str("version", Version).
		Str("db_path", a.cfg.Database.Path).
		Str("default_mode", string(engine.Config().DefaultMode())).
		Msg("starting filmgraph")

	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logger.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
