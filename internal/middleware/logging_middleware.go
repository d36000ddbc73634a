package middleware

import (
	"strconv"
	"time"

	"civic-pulse/internal/metrics"
	"civic-pulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingMiddleware writes one access log line per request and records the
// request in m. The route template is used as the metric label so that poll
// ids do not explode its cardinality.
func LoggingMiddleware(l *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	if l == nil {
		l = logger.GetGlobalLogger()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Request(method, route, strconv.Itoa(status), latency.Seconds())

		l.WithContext(c.Request.Context()).Info("http request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency))
	}
}
