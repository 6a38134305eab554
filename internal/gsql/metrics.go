package gsql

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsql_requests_total",
		Help: "Console requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gsql_request_duration_seconds",
		Help:    "Console request duration in seconds, including response processing",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"endpoint"})

	commandFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gsql_command_failures_total",
		Help: "Commands for which the server reported a non-zero return code",
	})
)

func observeRequest(endpoint string, start time.Time, err error) {
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(endpoint, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	var cmdErr *CommandError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &cmdErr):
		return "command_error"
	default:
		return "error"
	}
}
