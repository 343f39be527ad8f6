package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg             *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	reportsIssued   prometheus.Counter
	reportsServed   prometheus.Counter
	reportsNotFound prometheus.Counter
	createFailures  prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		reg: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "edutok",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		reportsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutok",
			Name:      "grade_reports_issued_total",
			Help:      "Grade reports issued.",
		}),
		reportsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutok",
			Name:      "grade_reports_served_total",
			Help:      "Grade reports served (JSON, viewer and exports).",
		}),
		reportsNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutok",
			Name:      "grade_reports_not_found_total",
			Help:      "Lookups of unknown or expired grade reports.",
		}),
		createFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edutok",
			Name:      "grade_report_create_failures_total",
			Help:      "Grade report creations that failed on the server side.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.reportsIssued,
		m.reportsServed,
		m.reportsNotFound,
		m.createFailures,
	)
	return m
}

func (m *metrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			// handle the error here so that the response status is known
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			status := ctx.Response().Status
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.requestDuration.
				WithLabelValues(ctx.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
