// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type fakeCheckpointer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCheckpointer) Checkpoint(ctx context.Context) error {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("checkpoint called without deadline")
	}
	return f.err
}

func TestCheckpointService_Interface(t *testing.T) {
	var _ suture.Service = (*CheckpointService)(nil)
}

func TestNewCheckpointService_DefaultInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		svc := NewCheckpointService(&fakeCheckpointer{}, interval, zerolog.Nop())
		if svc.interval != 5*time.Minute {
			t.Errorf("interval %v: got %v, want 5m", interval, svc.interval)
		}
	}
	if got := NewCheckpointService(&fakeCheckpointer{}, time.Second, zerolog.Nop()).String(); got != "checkpoint-service" {
		t.Errorf("String() = %q", got)
	}
}

func TestCheckpointService_Serve(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"checkpoints on every tick", nil},
		{"keeps running when checkpoint fails", errors.New("io error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCheckpointer{err: tt.err}
			svc := NewCheckpointService(store, 10*time.Millisecond, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			err := svc.Serve(ctx)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
			}
			if store.calls.Load() < 2 {
				t.Errorf("checkpoint calls = %d, want at least 2", store.calls.Load())
			}
		})
	}
}
