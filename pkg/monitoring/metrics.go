// Package monitoring exposes the registry's Prometheus metrics.
//
// Available metrics:
//   - mlopslite_registrations_total{artifact, outcome}
//   - mlopslite_predictions_total{status}
//   - mlopslite_prediction_rows_total
//   - mlopslite_execution_log_failures_total
//   - mlopslite_store_operation_duration_seconds{operation}
//   - mlopslite_deployable_cache_total{result}
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeExisting = "existing"
	OutcomeRejected = "rejected"
)

//nolint:gochecknoglobals
var (
	registry = prometheus.NewRegistry()

	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlopslite_registrations_total",
			Help: "Total number of dataset and deployable registrations",
		},
		[]string{"artifact", "outcome"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlopslite_predictions_total",
			Help: "Total number of prediction calls",
		},
		[]string{"status"},
	)

	predictionRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mlopslite_prediction_rows_total",
			Help: "Total number of rows scored",
		},
	)

	executionLogFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mlopslite_execution_log_failures_total",
			Help: "Total number of execution logs that could not be written",
		},
	)

	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlopslite_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	deployableCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlopslite_deployable_cache_total",
			Help: "Deployable cache lookups by result",
		},
		[]string{"result"},
	)
)

//nolint:gochecknoinits
func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		registrationsTotal,
		predictionsTotal,
		predictionRowsTotal,
		executionLogFailuresTotal,
		storeOperationDuration,
		deployableCacheTotal,
	)
}

// Registry returns the registry every metric of this package is registered with.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// RecordRegistration counts a register or push call for artifact ("dataset" or "deployable").
func RecordRegistration(artifact, outcome string) {
	registrationsTotal.WithLabelValues(artifact, outcome).Inc()
}

func RecordPrediction(rows int, success bool) {
	status := "success"
	if !success {
		status = "error"
	}

	predictionsTotal.WithLabelValues(status).Inc()

	if success {
		predictionRowsTotal.Add(float64(rows))
	}
}

func RecordExecutionLogFailure() {
	executionLogFailuresTotal.Inc()
}

func ObserveStoreOperation(operation string, duration time.Duration) {
	storeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup counts a deployable cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	deployableCacheTotal.WithLabelValues(result).Inc()
}
