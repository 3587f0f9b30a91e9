package middleware

import (
	"strconv"
	"time"

	"wcperfit/internal/logger"
	"wcperfit/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request and counts it in the request metrics.
func Logger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()

		logger.Info("%s %s %d %s %s",
			c.Request.Method,
			c.Request.URL.Path,
			status,
			time.Since(start),
			c.ClientIP(),
		)
	}
}
