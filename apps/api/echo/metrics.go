package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/absences/core/tracker"
)

const metricsNamespace = "absences"

// metrics are registered on their own registry so that several servers can live in one process.
type metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	statusEdits   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	imported      *prometheus.CounterVec
}

func newMetrics(trk *tracker.Tracker) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		statusEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "status_edits_total",
			Help:      "Attendance status edits by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_sent_total",
			Help:      "Messages handed to the email service by kind.",
		}, []string{"kind"}),
		imported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "imported_students_total",
			Help:      "Imported spreadsheet rows by result.",
		}, []string{"result"}),
	}

	overviewGauge := func(name, help string, value func(tracker.Stats) int) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(value(trk.Overview(tracker.OverviewQuery{}).Stats))
		})
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.statusEdits,
		m.notifications,
		m.imported,
		overviewGauge("students", "Students on the roster.", func(s tracker.Stats) int { return s.TotalStudents }),
		overviewGauge("students_in_alert", "Students above the alert threshold.", func(s tracker.Stats) int { return s.StudentsWithAlerts }),
		overviewGauge("unjustified_half_days", "Unjustified half-days over the roster.", func(s tracker.Stats) int { return s.TotalUnjustified }),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware counts requests by route template, so that ids do not blow up the label cardinality.
func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := next(ctx); err != nil {
			ctx.Error(err)
		}
		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(
			ctx.Request().Method,
			route,
			strconv.Itoa(ctx.Response().Status),
		).Inc()
		return nil
	}
}
