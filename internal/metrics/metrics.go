// Package metrics exposes Prometheus collectors for the HTTP API, the ledger
// operations and the scheduled jobs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fleetledger_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics bundles the service collectors.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	LedgerOperations *prometheus.CounterVec
	JobsTotal        *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
}

// New constructs the collectors and registers them with registerer, or with
// the default registry when registerer is nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LedgerOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_operations_total",
				Help: "Total reservation ledger operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "jobs_total",
				Help: "Total scheduled job runs by job and result",
			},
			[]string{"job", "result"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_duration_seconds",
				Help:    "Scheduled job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
	}
	registerer.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.LedgerOperations,
		m.JobsTotal,
		m.JobDuration,
	)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveOperation records one ledger operation outcome.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, result(err)).Inc()
}

// ObserveJob records one scheduled job run.
func (m *Metrics) ObserveJob(job string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(job, result(err)).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
