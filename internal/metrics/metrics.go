// Package metrics provides Prometheus metrics collection for the relay.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics, stored in atomic pointers so the record helpers stay
	// lock-free and safe to call before Init.
	requestsTotal        atomic.Pointer[prometheus.CounterVec]
	requestDuration      atomic.Pointer[prometheus.HistogramVec]
	forwardFailuresTotal atomic.Pointer[prometheus.CounterVec]
)

// Init initializes all Prometheus metrics and registers them with the provided
// registry. This should be called once at application startup.
func Init(reg prometheus.Registerer, version string) error {
	requestsTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "highlight",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the relay",
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestsTotalVec); err != nil {
		return fmt.Errorf("failed to register requestsTotal: %w", err)
	}

	requestDurationVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "highlight",
			Subsystem: "relay",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestDurationVec); err != nil {
		return fmt.Errorf("failed to register requestDuration: %w", err)
	}

	forwardFailuresTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "highlight",
			Subsystem: "relay",
			Name:      "forward_failures_total",
			Help:      "Total number of failed downstream forwards",
		},
		[]string{"kind"},
	)
	if err := reg.Register(forwardFailuresTotalVec); err != nil {
		return fmt.Errorf("failed to register forwardFailuresTotal: %w", err)
	}

	infoGaugeVec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "highlight",
			Subsystem: "relay",
			Name:      "info",
			Help:      "Relay version and build information",
		},
		[]string{"version"},
	)
	if err := reg.Register(infoGaugeVec); err != nil {
		return fmt.Errorf("failed to register infoGauge: %w", err)
	}
	infoGaugeVec.WithLabelValues(version).Set(1)

	requestsTotal.Store(requestsTotalVec)
	requestDuration.Store(requestDurationVec)
	forwardFailuresTotal.Store(forwardFailuresTotalVec)

	return nil
}

// RecordRequest increments the requests counter.
// The path should be normalized to avoid cardinality explosion.
func RecordRequest(method, path, statusCode string) {
	if counter := requestsTotal.Load(); counter != nil {
		counter.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordRequestDuration records the latency for a request in seconds.
func RecordRequestDuration(method, path, statusCode string, durationSeconds float64) {
	if histogram := requestDuration.Load(); histogram != nil {
		histogram.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
	}
}

// RecordForwardFailure increments the forward failures counter.
// Common kinds: "discord", "webhook".
func RecordForwardFailure(kind string) {
	if counter := forwardFailuresTotal.Load(); counter != nil {
		counter.WithLabelValues(kind).Inc()
	}
}

// Handler returns an HTTP handler serving reg's metrics in text format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
