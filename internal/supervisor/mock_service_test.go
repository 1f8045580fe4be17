// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// countingService fails its first failures runs, then blocks until
// canceled. started counts every Serve call.
type countingService struct {
	name     string
	failures int32
	started  atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	if n := s.started.Add(1); n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string {
	return s.name
}
