// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the answer pipeline over HTTP. One pipeline run
// is in flight at a time; a request that arrives while a run is active is
// rejected immediately with 503.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// BusyMessage is the error returned to a request rejected by single-flight.
const BusyMessage = "busy: another query is being processed"

// Processor runs one query through the pipeline.
type Processor interface {
	Process(ctx context.Context, raw string) types.PipelineResult
}

// Server serves the query form, the JSON API, and the HTML answer page.
type Server struct {
	processor Processor
	health    func(ctx context.Context) error
	cfg       types.ServerConfig
	logger    arbor.ILogger
	md        goldmark.Markdown

	// running admits one pipeline run at a time.
	running sync.Mutex

	server *http.Server
}

// New returns a Server for p. health, when non-nil, backs GET /healthz.
func New(p Processor, health func(ctx context.Context) error, cfg types.ServerConfig, logger arbor.ILogger) *Server {
	s := &Server{
		processor: p,
		health:    health,
		cfg:       cfg,
		logger:    logger,
		md:        goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with logging and recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ask", s.handleAskPage)
	mux.HandleFunc("POST /api/ask", s.handleAskAPI)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	h = s.recoveryMiddleware(h)
	h = s.loggingMiddleware(h)
	return h
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.cfg.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// run processes query under single-flight. ok is false when another run
// holds the lock.
func (s *Server) run(ctx context.Context, query string) (res types.PipelineResult, ok bool) {
	if !s.running.TryLock() {
		s.logger.Warn().Str("query", query).Msg("Rejected query, pipeline busy")
		return res, false
	}
	defer s.running.Unlock()

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}
	return s.processor.Process(ctx, query), true
}
