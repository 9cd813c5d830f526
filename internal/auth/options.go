// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// settings holds the optional collaborators shared by Registry and Authority.
type settings struct {
	logger         *slog.Logger
	clock          func() time.Time
	newID          func() (uuid.UUID, error)
	lifetime       time.Duration
	distinctExpiry bool
	metrics        *Metrics
}

func defaultSettings() settings {
	return settings{
		logger:   slog.Default(),
		clock:    time.Now,
		newID:    uuid.NewRandom,
		lifetime: SessionLifetime,
	}
}

// Option configures a Registry or an Authority.
type Option func(*settings)

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces uuid.NewRandom for new account identities.
func WithIDGenerator(gen func() (uuid.UUID, error)) Option {
	return func(s *settings) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithSessionLifetime overrides SessionLifetime for new sessions.
// Non-positive durations are ignored.
func WithSessionLifetime(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithMetrics sets the counters the service records into. A nil m is
// ignored.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithDistinctExpiry makes Validate report AuthSessionExpired for an expired
// token instead of folding it into AuthInvalidSession.
func WithDistinctExpiry() Option {
	return func(s *settings) {
		s.distinctExpiry = true
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
