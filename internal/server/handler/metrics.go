package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	daoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daotrust_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	daoRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "daotrust_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	daoLedgerAppendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daotrust_ledger_appends_total",
		Help: "Total ledger entries appended.",
	})

	daoPersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daotrust_ledger_persist_failures_total",
		Help: "Total appends whose durable mirror write failed.",
	})

	daoVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "daotrust_verifications_total",
		Help: "Total verification calls by outcome.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		daoRequestsTotal.WithLabelValues(method, path, status).Inc()
		daoRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAppend records a ledger append and whether its mirror write
// reached durable storage. Operators watch the failure counter to spot
// persistence degradation without it ever failing the appends.
func RecordAppend(persisted bool) {
	daoLedgerAppendsTotal.Inc()
	if !persisted {
		daoPersistFailuresTotal.Inc()
	}
}

// RecordVerification records a verification outcome.
func RecordVerification(valid bool) {
	if valid {
		daoVerificationsTotal.WithLabelValues("valid").Inc()
	} else {
		daoVerificationsTotal.WithLabelValues("invalid").Inc()
	}
}
