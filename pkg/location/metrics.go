// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts location lookups by outcome.
type Metrics struct {
	Discovery *prometheus.CounterVec
}

// NewMetrics creates the resolver metrics on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Discovery: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aas_discovery_total",
			Help: "Auth service location lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) observe(resolved bool) {
	result := "unresolved"
	if resolved {
		result = "resolved"
	}
	m.Discovery.WithLabelValues(result).Inc()
}
