package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/infrastructure/metrics"
)

const (
	httpRequestsTotal   = "http_requests_total"
	httpRequestDuration = "http_request_duration_seconds"
)

func MetricsMiddleware(m metrics.Manager) gin.HandlerFunc {
	m.NewCounter(httpRequestsTotal, "Number of HTTP requests served")
	m.NewHistogram(httpRequestDuration, "HTTP request latency in seconds",
		0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5)

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := []string{
			"method", c.Request.Method,
			"route", route,
			"status", strconv.Itoa(c.Writer.Status()),
		}

		m.IncrementCounter(c.Request.Context(), httpRequestsTotal, labels...)
		m.RecordHistogram(c.Request.Context(), httpRequestDuration, time.Since(start).Seconds(), labels...)
	}
}
