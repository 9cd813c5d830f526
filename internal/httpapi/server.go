// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package httpapi exposes the account registry and session authority over
// HTTP. Every response body is a result envelope; the HTTP status is derived
// from the envelope's error kind.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/observability"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 64 << 10

// Server routes student requests to the auth core.
type Server struct {
	registry     *auth.Registry
	authority    *auth.Authority
	logger       *slog.Logger
	metrics      *observability.Metrics
	schemas      map[string]*jschema.Schema
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access and failure logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request counts and latency into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New creates a Server. Request schemas are compiled up front so a broken
// schema fails startup rather than the first request.
func New(registry *auth.Registry, authority *auth.Authority, opts ...Option) (*Server, error) {
	if registry == nil || authority == nil {
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("registry and authority are required")
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		registry:     registry,
		authority:    authority,
		logger:       slog.Default(),
		schemas:      schemas,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /student/register", s.handleRegister)
	mux.HandleFunc("GET /student/get_id/{username}", s.handleGetID)
	mux.HandleFunc("POST /student/login", s.handleLogin)
	mux.HandleFunc("POST /student/session", s.handleSession)
	mux.HandleFunc("POST /student/logout", s.handleLogout)
	mux.HandleFunc("/", s.handleNotFound)

	return s.withRequestID(s.withAccessLog(s.withRecovery(mux)))
}
