package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var installedQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "graph_installed_query_duration_seconds",
	Help:    "Installed query latency by backend, query and outcome",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
}, []string{"backend", "query", "outcome"})

func observeQuery(backend, query string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	installedQueryDuration.WithLabelValues(backend, query, outcome).Observe(time.Since(start).Seconds())
}
