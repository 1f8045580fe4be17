// Filmgraph - Social Film Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmgraph

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(zerolog.New(&buf)))

	logger.Warn("service restarted",
		"service", "http-server",
		"attempt", 3,
		"ratio", 0.5,
		"ok", false,
		"backoff", 2*time.Second,
		"err", errors.New("listen failed"),
	)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "warn" || m["message"] != "service restarted" {
		t.Errorf("level/message = %v/%v", m["level"], m["message"])
	}
	if m["service"] != "http-server" || m["attempt"] != float64(3) || m["ratio"] != 0.5 || m["ok"] != false {
		t.Errorf("attrs = %v", m)
	}
	if m["err"] != "listen failed" {
		t.Errorf("err = %v, want listen failed", m["err"])
	}
}

func TestSlogHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
		{slog.LevelError + 4, "error"},
	}
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(prev)

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewSlogHandler(zerolog.New(&buf).Level(zerolog.TraceLevel))
			logger := slog.New(h)
			logger.Log(context.Background(), tt.level, "msg")
			if m := decodeLine(t, strings.TrimSpace(buf.String())); m["level"] != tt.want {
				t.Errorf("level = %v, want %s", m["level"], tt.want)
			}
		})
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandler(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled on a warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled on a warn logger")
	}
}

func TestSlogHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(zerolog.New(&buf))).
		With("supervisor", "filmgraph").
		WithGroup("event").
		WithGroup("svc")

	logger.Info("terminated", "name", "http", slog.Group("cause", "kind", "panic"))

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["supervisor"] != "filmgraph" {
		t.Errorf("attr added before groups should stay ungrouped: %v", m)
	}
	if m["event.svc.name"] != "http" {
		t.Errorf("grouped attr key wrong: %v", m)
	}
	if m["event.svc.cause.kind"] != "panic" {
		t.Errorf("nested group key wrong: %v", m)
	}
}

func TestSlogHandler_WithGroupEmpty(t *testing.T) {
	h := NewSlogHandler(zerolog.Nop())
	if h.WithGroup("") != h {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	withGlobal(t, Config{Level: "info", Output: &buf})

	NewSlogLogger("supervisor").Info("tree started")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["component"] != "supervisor" || m["message"] != "tree started" {
		t.Errorf("unexpected entry: %v", m)
	}
}
