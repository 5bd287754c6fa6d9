// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session store's collectors.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Refreshes   *prometheus.CounterVec
}

// NewMetrics creates the store metrics on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aas_session_transitions_total",
			Help: "Session store transitions by target state",
		}, []string{"state"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aas_token_refresh_total",
			Help: "Scheduled token refreshes by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) transition(state State) {
	m.Transitions.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) refreshed(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	m.Refreshes.WithLabelValues(result).Inc()
}
