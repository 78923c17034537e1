/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors one endpoint exports. A nil
// *Metrics (the zero value returned when no Registerer is supplied) turns
// every method into a no-op, so callers never need a nil check.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	denied   *prometheus.CounterVec
}

// NewMetrics registers a request counter, a latency histogram, and an
// admission-denied counter for name against reg. A nil reg yields a Metrics
// whose recording methods are no-ops.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpedge",
			Subsystem: "endpoint",
			Name:      "requests_total",
			Help:      "Total requests dispatched by this endpoint.",
			ConstLabels: prometheus.Labels{
				"endpoint": name,
			},
		}, []string{"status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "httpedge",
			Subsystem: "endpoint",
			Name:      "request_duration_seconds",
			Help:      "Request dispatch latency in seconds.",
			ConstLabels: prometheus.Labels{
				"endpoint": name,
			},
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "httpedge",
			Subsystem: "endpoint",
			Name:      "admissions_denied_total",
			Help:      "Connections or requests denied by a rate limiter.",
			ConstLabels: prometheus.Labels{
				"endpoint": name,
			},
		}, []string{"stage"}),
	}

	reg.MustRegister(m.requests, m.latency, m.denied)
	return m
}

func (m *Metrics) observe(status int, seconds float64) {
	if m == nil {
		return
	}
	label := statusLabel(status)
	m.requests.WithLabelValues(label).Inc()
	m.latency.WithLabelValues(label).Observe(seconds)
}

func (m *Metrics) denyRequest(stage string) {
	if m == nil {
		return
	}
	m.denied.WithLabelValues(stage).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
