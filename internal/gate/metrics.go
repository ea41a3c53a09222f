// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package gate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Decisions counts gate verdicts by action category and decision.
// Use RegisterMetrics to register this with a Prometheus registry.
var Decisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatewarden_gate_decisions_total",
		Help: "Total number of gate decisions by action category and verdict",
	},
	[]string{"category", "decision"},
)

// AutoLogins counts auto-authentications from the bypass list.
// Use RegisterMetrics to register this with a Prometheus registry.
var AutoLogins = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "gatewarden_auto_logins_total",
		Help: "Total number of bypass-list auto-authentications",
	},
)

// RegisterMetrics registers gate package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Decisions)
	reg.MustRegister(AutoLogins)
}

// RecordDecision increments the decision counter.
func RecordDecision(category Category, decision Decision) {
	Decisions.WithLabelValues(category.String(), decision.String()).Inc()
}

// RecordAutoLogin increments the auto-login counter.
func RecordAutoLogin() {
	AutoLogins.Inc()
}
