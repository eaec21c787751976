// Package metrics defines Prometheus collectors for the CampusFix client.
//
// Metric naming follows Prometheus conventions:
//   - campusfix_client_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeNetworkError = "network_error"
)

// Refresh outcomes.
const (
	RefreshRenewed   = "renewed"
	RefreshFailed    = "failed"
	RefreshNoToken   = "no_token"
	RefreshCoalesced = "coalesced"
)

// Client groups the collectors recorded by the API client.
type Client struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    prometheus.Counter
	RefreshTotal    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the client collectors and registers them on reg.
// A nil reg uses a fresh private registry.
func New(reg *prometheus.Registry) *Client {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Client{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campusfix_client_requests_total",
				Help: "Total API requests by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campusfix_client_request_duration_seconds",
				Help:    "Duration of API requests in seconds, including any refresh and retry.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		RetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campusfix_client_retries_total",
				Help: "Requests reissued after a credential refresh.",
			},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campusfix_client_refresh_total",
				Help: "Credential refresh attempts by outcome.",
			},
			[]string{"outcome"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RetriesTotal, m.RefreshTotal)
	return m
}

// Gatherer returns the registry the collectors were registered on.
func (m *Client) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// ObserveRequest records one completed request.
func (m *Client) ObserveRequest(method, outcome string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveRefresh records one refresh attempt.
func (m *Client) ObserveRefresh(outcome string) {
	m.RefreshTotal.WithLabelValues(outcome).Inc()
}

// ObserveRetry records one reissued request.
func (m *Client) ObserveRetry() {
	m.RetriesTotal.Inc()
}
