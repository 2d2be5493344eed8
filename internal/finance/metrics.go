package finance

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coindash",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Remote price API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coindash",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of remote price API requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	seriesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coindash",
			Subsystem: "series",
			Name:      "served_total",
			Help:      "Price series resolved by source (local, remote, empty)",
		},
		[]string{"source"},
	)
)

// RegisterMetrics registers the finance collectors with the default registry.
func RegisterMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(upstreamRequests, upstreamLatency, seriesServed)
	})
}
