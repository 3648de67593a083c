package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics. The path label is the route template (c.FullPath()),
// not the raw URL, or cardinality grows with every UUID.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgercore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledgercore",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Domain metrics: money movement and the webhook pipeline.
var (
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger transactions by type and outcome",
		},
		[]string{"type", "status"},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgercore",
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Webhook deliveries by ingest outcome",
		},
		[]string{"outcome"}, // accepted, rejected
	)
)

// Database pool connections, refreshed by the health probe.
var dbConnections = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "ledgercore",
		Subsystem: "db",
		Name:      "connections",
		Help:      "Database pool connections by state",
	},
	[]string{"state"},
)

// Metrics records HTTP metrics for every request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransaction counts the outcome of one ledger transaction.
func RecordTransaction(txType, status string) {
	transfersTotal.WithLabelValues(txType, status).Inc()
}

// RecordWebhookIngest counts the outcome of one webhook delivery.
func RecordWebhookIngest(outcome string) {
	webhookEventsTotal.WithLabelValues(outcome).Inc()
}

// UpdateDBConnections refreshes the pool connection gauge.
func UpdateDBConnections(idle, inUse, max int32) {
	dbConnections.WithLabelValues("idle").Set(float64(idle))
	dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	dbConnections.WithLabelValues("max").Set(float64(max))
}
