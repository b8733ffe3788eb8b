// Package prometheus registers and exposes the engine's operational metrics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets for analysis latencies, in seconds.
var defaultDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// Metrics holds every metric the engine emits.
type Metrics struct {
	registry *prometheus.Registry

	AnalysisRequestsTotal *prometheus.CounterVec
	AnalysisDuration      *prometheus.HistogramVec
	InsightsTotal         *prometheus.CounterVec
	NoMatchTotal          *prometheus.CounterVec
	ClaimRiskTotal        *prometheus.CounterVec

	TrendUpdatesTotal  *prometheus.CounterVec
	PatternsCreated    prometheus.Counter
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	SelfTestFailures   prometheus.Gauge
	RepositoryFailures *prometheus.CounterVec
}

// NewMetrics builds and registers all engine metrics on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "maxclaim"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	factory := func(name, help string, labels ...string) *prometheus.CounterVec {
		v := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help,
		}, labels)
		registry.MustRegister(v)
		return v
	}

	m := &Metrics{registry: registry}
	m.AnalysisRequestsTotal = factory("analysis_requests_total",
		"Analysis requests by kind and result", "kind", "status")
	m.InsightsTotal = factory("insights_total",
		"Matched insights by severity", "severity")
	m.NoMatchTotal = factory("no_match_total",
		"Line items with no known pattern", "kind")
	m.ClaimRiskTotal = factory("claim_risk_total",
		"Claim assessments by overall risk", "risk")
	m.TrendUpdatesTotal = factory("trend_updates_total",
		"Audit outcomes folded into patterns", "status")
	m.RepositoryFailures = factory("repository_failures_total",
		"Pattern repository failures by operation", "operation")

	m.AnalysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Analysis latency by kind",
		Buckets:   defaultDurationBuckets,
	}, []string{"kind"})
	registry.MustRegister(m.AnalysisDuration)

	m.PatternsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "patterns_created_total",
		Help: "Brand-new carrier patterns established by audit outcomes",
	})
	m.CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_hits_total",
		Help: "Pattern cache hits",
	})
	m.CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_misses_total",
		Help: "Pattern cache misses",
	})
	m.SelfTestFailures = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "selftest_failures",
		Help: "Failed cases in the most recent self-test run",
	})
	registry.MustRegister(m.PatternsCreated, m.CacheHitsTotal, m.CacheMissesTotal, m.SelfTestFailures)

	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
