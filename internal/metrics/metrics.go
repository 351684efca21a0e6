package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "sovra_build_info",
			Help:        "Build information for the sovra query service",
			ConstLabels: prometheus.Labels{"component": "server"},
		},
		[]string{"date", "sha", "version"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sovra_queries_total",
			Help: "Total number of /query requests by outcome",
		},
		[]string{"outcome"},
	)

	generationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sovra_generation_duration_seconds",
			Help:    "Wall-clock duration of backend generation calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	backendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sovra_backend_failures_total",
			Help: "Backend call failures by kind (status, transport)",
		},
		[]string{"kind"},
	)
)

// Register registers the query-service collectors on r.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, queriesTotal, generationSeconds, backendFailuresTotal)
}

// SetBuildInfo sets the build info metric for the server.
func SetBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordQuery counts one /query request with the given outcome
// (success, invalid, backend_error, rate_limited).
func RecordQuery(outcome string) {
	queriesTotal.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the duration of one generation call.
func ObserveGeneration(seconds float64) {
	generationSeconds.Observe(seconds)
}

// RecordBackendFailure counts a failed backend call by kind.
func RecordBackendFailure(kind string) {
	backendFailuresTotal.WithLabelValues(kind).Inc()
}
