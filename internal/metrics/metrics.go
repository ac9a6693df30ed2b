// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quest"

const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelProvider = "provider"
	LabelOutcome  = "outcome"
	LabelSource   = "source"
	LabelKind     = "kind"
	LabelOp       = "op"
)

// Provider attempt outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTerminal = "terminal"
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being served",
		},
	)
)

// Curation
var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Provider chain attempts by provider and outcome",
		},
		[]string{LabelProvider, LabelOutcome},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Latency of a single provider attempt",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{LabelProvider},
	)

	IndexRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_repairs_total",
			Help:      "Provider selections that needed repair before use",
		},
		[]string{LabelKind},
	)

	QuestsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quests_generated_total",
			Help:      "Quests built, by the provider that produced the selection",
		},
		[]string{LabelSource},
	)

	StaleGenerations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_generations_total",
			Help:      "Curation results discarded because a newer generation was started",
		},
	)
)

// Persistence
var (
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed state loads and saves",
		},
		[]string{LabelOp},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by outcome",
		},
		[]string{LabelOutcome},
	)
)
