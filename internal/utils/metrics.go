package utils

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the journal service
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	SessionsLogged   prometheus.Counter
	ReadingSeconds   prometheus.Counter
	LevelUps         prometheus.Counter
	StatsRebuilds    *prometheus.CounterVec
}

// NewMetrics registers the service metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "journal",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "journal",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "journal",
			Name:      "http_requests_in_flight",
			Help:      "Number of requests currently being processed",
		}),
		SessionsLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "journal",
			Name:      "reading_sessions_logged_total",
			Help:      "Reading sessions recorded",
		}),
		ReadingSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "journal",
			Name:      "reading_seconds_total",
			Help:      "Seconds of reading recorded",
		}),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "journal",
			Name:      "level_ups_total",
			Help:      "Readers reaching a new level",
		}),
		StatsRebuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "journal",
				Name:      "stats_rebuilds_total",
				Help:      "Statistics aggregation runs",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.RequestsInFlight,
		m.SessionsLogged,
		m.ReadingSeconds,
		m.LevelUps,
		m.StatsRebuilds,
	)

	return m
}

// GinMiddleware records request count, latency and in-flight requests
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
