package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instrumentation exposed at /metrics,
// grounded on AleutianFOSS's promauto.NewCounterVec/NewHistogramVec idiom
// (services/trace/agent/providers/egress/metrics.go).
var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marcodex",
		Subsystem: "query",
		Name:      "requests_total",
		Help:      "Total query requests by mode and status",
	}, []string{"mode", "status"})

	queryLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marcodex",
		Subsystem: "query",
		Name:      "latency_seconds",
		Help:      "Query handling latency by mode",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"mode"})

	resultsReturned = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marcodex",
		Subsystem: "query",
		Name:      "results_returned",
		Help:      "Number of ranked results returned per query",
		Buckets:   []float64{0, 1, 2, 5, 10},
	}, []string{"mode"})
)
