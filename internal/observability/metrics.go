// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unitystation/centralcommand/internal/accounts"
)

const namespace = "centralcommand"

// Metrics contains the application metrics. It implements
// accounts.Recorder.
type Metrics struct {
	IdentifierChecks *prometheus.CounterVec
	Registrations    prometheus.Counter
	Logins           *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates the application metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IdentifierChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identifier_validations_total",
				Help:      "Total number of account identifier validations by outcome",
			},
			[]string{"outcome"},
		),
		Registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of accounts registered",
			},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(m.IdentifierChecks, m.Registrations, m.Logins, m.HTTPRequests, m.HTTPDuration)
	return m
}

// IdentifierChecked counts a validation outcome.
func (m *Metrics) IdentifierChecked(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.IdentifierChecks.WithLabelValues(outcome).Inc()
}

// Registered counts a new account.
func (m *Metrics) Registered() {
	m.Registrations.Inc()
}

// LoginAttempt counts a login by result.
func (m *Metrics) LoginAttempt(result string) {
	m.Logins.WithLabelValues(result).Inc()
}

// ObserveHTTP records a completed API request. route is the matched
// route pattern, not the raw path, to bound label cardinality.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var _ accounts.Recorder = (*Metrics)(nil)
