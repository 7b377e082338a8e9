// Package metrics exposes Prometheus collectors for record inserts,
// validation failures and HTTP requests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's collectors. A nil *Metrics is valid and
// records nothing, which keeps services usable without a registry.
type Metrics struct {
	inserts            *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid clashing on the global registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		inserts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomview_records_inserted_total",
				Help: "Total number of records inserted, by table",
			},
			[]string{"table"},
		),
		validationFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roomview_validation_failures_total",
				Help: "Total number of rejected insert payloads, by table",
			},
			[]string{"table"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roomview_http_request_duration_seconds",
				Help:    "HTTP request latency, by method, route pattern and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) RecordInsert(table string) {
	if m == nil {
		return
	}
	m.inserts.WithLabelValues(table).Inc()
}

func (m *Metrics) RecordValidationFailure(table string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(table).Inc()
}

// ObserveRequest records one completed HTTP request. route should be the
// router pattern ("/api/models/{id}"), not the raw path, to bound cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
