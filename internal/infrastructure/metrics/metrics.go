// Package metrics owns the Prometheus registry of the service and the HTTP
// instrumentation around it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "photobooth/internal/errors"
)

const namespace = "photobooth"

type Metrics struct {
	registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	sourceReads    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	skippedRecords *prometheus.CounterVec
	dateFallbacks  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		sourceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_source_reads_total",
			Help:      "Reservation source reads by source and outcome.",
		}, []string{"source", "outcome"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reservation_source_read_duration_seconds",
			Help:      "Reservation source read latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"source"}),
		skippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_reservations_total",
			Help:      "Reservations whose date could not be normalized.",
		}, []string{"source"}),
		dateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "date_normalizer_fallback_total",
			Help: "Dates normalized through the generic parser.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.sourceReads,
		m.sourceDuration,
		m.skippedRecords,
		m.dateFallbacks,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency labelled with the matched
// chi route pattern, so query strings and unknown paths do not explode the
// label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(started).Seconds())
	})
}

func (m *Metrics) ObserveSourceRead(source string, err error, elapsed time.Duration) {
	m.sourceReads.WithLabelValues(source, outcome(err)).Inc()
	m.sourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordSkipped(source string, skipped int) {
	m.skippedRecords.WithLabelValues(source).Add(float64(skipped))
}

// DateFallback is installed as the normalizer's fallback hook.
func (m *Metrics) DateFallback() {
	m.dateFallbacks.Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isSchemaMismatch(err):
		return "schema_mismatch"
	default:
		return "unavailable"
	}
}

func isSchemaMismatch(err error) bool {
	_, ok := apperrors.IsSchemaMismatchError(err)
	return ok
}
