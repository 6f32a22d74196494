package prometheus

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"property-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by route template and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Status code category counter (2xx, 4xx, 5xx)
	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category",
		},
		[]string{"category"},
	)

	// Resource operation counter
	ResourceOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_operations_total",
			Help: "Total number of operations per resource",
		},
		[]string{"resource", "operation"}, // operation can be "list", "get", "create", "update", "delete"
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// Login and registration counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Escalation events created, by how they were raised
	EscalationEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escalation_events_total",
			Help: "Total number of escalation events created",
		},
		[]string{"source"}, // "manual" or "evaluator"
	)

	ChatMessageCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages posted",
		},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "count", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	ChatConnectionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_connections",
			Help: "Number of open chat websocket connections",
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry under the
// configured prefix. Safe to call more than once.
func InitMetrics(cfg *config.Config) {
	registerOnce.Do(func() {
		prefix := cfg.Metrics.Prefix
		if prefix != "" {
			prefix += "_"
		}
		reg := prometheus.WrapRegistererWithPrefix(prefix, prometheus.DefaultRegisterer)
		reg.MustRegister(
			HTTPRequestCounter,
			StatusCategoryCounter,
			ResourceOperationCounter,
			AuthErrorCounter,
			LoginCounter,
			RegisterCounter,
			EscalationEventCounter,
			ChatMessageCounter,
			RequestDuration,
			DBOperationDuration,
			ChatConnectionsGauge,
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}
}

// RecordOperation increments the operation counter for a resource
func RecordOperation(resource, operation string) {
	ResourceOperationCounter.WithLabelValues(resource, operation).Inc()
}

// RecordAuthError increments the authentication error counter
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	}
	return "other"
}

// MetricsMiddleware records request counts and durations by route template
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(method, path, statusStr).Inc()
			StatusCategoryCounter.WithLabelValues(statusCategory(status)).Inc()
			RequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
