package middlewares

import (
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/outreach/internal/server"
)

// Metrics returns middleware recording request counts, latencies and
// in-flight requests on reg. Routes are labelled by their chi pattern to
// keep cardinality low.
func Metrics(reg prometheus.Registerer) server.Middleware {
	f := promauto.With(reg)
	requests := f.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests processed",
	}, []string{"method", "route", "status"})
	duration := f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	inFlight := f.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Number of HTTP requests currently being served",
	})

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			start := time.Now()
			inFlight.Inc()
			defer inFlight.Dec()

			err := next(c)

			labels := prometheus.Labels{
				"method": c.Request().Method,
				"route":  routePattern(c),
				"status": strconv.Itoa(responseStatus(c, err)),
			}
			requests.With(labels).Inc()
			duration.With(labels).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func routePattern(c server.Context) string {
	if rctx := chi.RouteContext(c.Request().Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// responseStatus reports the written status, or the status err will be
// rendered with when nothing was written yet.
func responseStatus(c server.Context, err error) int {
	if err != nil && !c.Written() {
		if he := server.AsHTTPError(err); he != nil {
			return he.Code
		}
		return 500
	}
	if sw, ok := c.Response().(interface{ Status() int }); ok {
		return sw.Status()
	}
	return 200
}
