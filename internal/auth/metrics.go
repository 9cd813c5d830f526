// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("opendiary/auth")

// Outcome labels for registration and login counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeReused   = "reused"
	OutcomeError    = "error"
)

// Metrics holds the auth counters. Pass it to NewRegistry and NewAuthority
// with WithMetrics; without it each service counts into its own unregistered
// set.
type Metrics struct {
	// Registrations counts Register calls by outcome.
	Registrations *prometheus.CounterVec
	// Logins counts Login calls by outcome. "reused" means an outstanding
	// session was returned instead of a new one.
	Logins *prometheus.CounterVec
	// Validations counts session validations by AuthResult.
	Validations *prometheus.CounterVec
	// Logouts counts logout calls by whether a session row was removed.
	Logouts *prometheus.CounterVec
}

// NewMetrics creates the auth counters and registers them with reg.
// A nil reg leaves them unregistered.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opendiary_registrations_total",
				Help: "Total number of account registrations by outcome",
			},
			[]string{"outcome"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opendiary_logins_total",
				Help: "Total number of logins by outcome",
			},
			[]string{"outcome"},
		),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opendiary_session_validations_total",
				Help: "Total number of session validations by result",
			},
			[]string{"result"},
		),
		Logouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opendiary_logouts_total",
				Help: "Total number of logouts by removal",
			},
			[]string{"removed"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Registrations)
		reg.MustRegister(m.Logins)
		reg.MustRegister(m.Validations)
		reg.MustRegister(m.Logouts)
	}

	return m
}

func (m *Metrics) registration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) login(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) validation(result AuthResult) {
	m.Validations.WithLabelValues(result.String()).Inc()
}

func (m *Metrics) logout(removed bool) {
	m.Logouts.WithLabelValues(strconv.FormatBool(removed)).Inc()
}
