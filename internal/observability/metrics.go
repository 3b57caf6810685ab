// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// Metrics holds the helpdesk counters. It implements auth.Recorder so the
// Gateway reports outcomes without depending on prometheus.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	Registrations      *prometheus.CounterVec
	SessionResolutions *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics creates and registers the helpdesk metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_login_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_registrations_total",
				Help: "Total number of registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		SessionResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_session_resolutions_total",
				Help: "Total number of session resolutions by resulting state",
			},
			[]string{"state"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_http_requests_total",
				Help: "Total number of HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
	}

	reg.MustRegister(m.LoginAttempts)
	reg.MustRegister(m.Registrations)
	reg.MustRegister(m.SessionResolutions)
	reg.MustRegister(m.HTTPRequests)

	return m
}

// LoginAttempt implements auth.Recorder.
func (m *Metrics) LoginAttempt(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// Registration implements auth.Recorder.
func (m *Metrics) Registration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// SessionResolution implements auth.Recorder.
func (m *Metrics) SessionResolution(state string) {
	m.SessionResolutions.WithLabelValues(state).Inc()
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(method string, status int) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

var _ auth.Recorder = (*Metrics)(nil)
