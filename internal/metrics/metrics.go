// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for searches. It implements
// search.Hooks so a Searcher reports into it directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/advisor-search/internal/search"
)

// Metrics holds all Prometheus metrics for the search pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	Attempts *prometheus.CounterVec
	Retries  *prometheus.CounterVec
	Backoff  *prometheus.CounterVec
	Searches *prometheus.CounterVec
	Results  *prometheus.HistogramVec
	Duration *prometheus.HistogramVec
}

// New creates the metrics on a fresh registry, so several instances can
// coexist in one process.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_search_attempts_total",
			Help: "Calls made to the generation backend.",
		}, []string{"provider"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_search_retries_total",
			Help: "Attempts repeated after a quota failure.",
		}, []string{"provider"}),
		Backoff: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_search_backoff_seconds_total",
			Help: "Time spent waiting between attempts.",
		}, []string{"provider"}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_search_searches_total",
			Help: "Completed searches by outcome.",
		}, []string{"provider", "outcome"}),
		Results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_search_results",
			Help:    "Professors returned per successful search.",
			Buckets: []float64{0, 1, 3, 5, 10, 20},
		}, []string{"provider"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_search_duration_seconds",
			Help:    "Wall time of a search including backoff.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"provider", "outcome"}),
	}

	m.Registry.MustRegister(m.Attempts, m.Retries, m.Backoff, m.Searches, m.Results, m.Duration)
	return m
}

// Attempt counts one backend call.
func (m *Metrics) Attempt(provider string) {
	m.Attempts.WithLabelValues(provider).Inc()
}

// Retry counts one backoff wait.
func (m *Metrics) Retry(provider string, delay time.Duration) {
	m.Retries.WithLabelValues(provider).Inc()
	m.Backoff.WithLabelValues(provider).Add(delay.Seconds())
}

// Done records the outcome of a search.
func (m *Metrics) Done(provider string, kind search.Kind, results int, elapsed time.Duration) {
	outcome := kind.String()
	m.Searches.WithLabelValues(provider, outcome).Inc()
	m.Duration.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
	if kind == "" {
		m.Results.WithLabelValues(provider).Observe(float64(results))
	}
}

var _ search.Hooks = (*Metrics)(nil)
