// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Checkpointer flushes the store's write-ahead log. *database.DB satisfies it.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// checkpointTimeout bounds one checkpoint.
const checkpointTimeout = 2 * time.Minute

// CheckpointService checkpoints the store on a fixed interval so a long
// running server does not accumulate an unbounded WAL between loads.
type CheckpointService struct {
	store    Checkpointer
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCheckpointService creates the service. A non-positive interval uses 5m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCheckpointService(store Checkpointer, interval time.Duration, logger zerolog.Logger) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "checkpoint").Logger(),
		name:     "checkpoint-service",
	}
}

// Serve implements suture.Service. Checkpoint failures are logged and
// retried on the next tick rather than restarting the service.
func (s *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug().Dur("interval", s.interval).Msg("checkpoint service running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			s.checkpoint(ctx)
		}
	}
}

func (s *CheckpointService) checkpoint(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, checkpointTimeout)
	defer cancel()

	start := time.Now()
	if err := s.store.Checkpoint(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("checkpoint failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("checkpoint complete")
}

// String returns the service name for logging.
func (s *CheckpointService) String() string {
	return s.name
}
