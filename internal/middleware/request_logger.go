package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispatch/internal/observability"
)

// RequestLoggerMiddleware logs each request after it is handled and records
// the HTTP metrics. Requests that ended in a 5xx are logged at error level
// with the errors attached by the handler.
func RequestLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// Route template keeps the label set bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		statusLabel := strconv.Itoa(status)
		observability.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, statusLabel).Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, statusLabel).Observe(latency.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ContextKeyRequestID)),
		}

		if status >= 500 {
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("error", c.Errors.String()))
			}
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}
