package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profsight/profsight-api/internal/service"
)

// Metrics returns middleware that times each request and records it
// against the matched route template. Unmatched paths collapse into a
// single label so probe scans cannot inflate metric cardinality, and
// the scrape endpoint itself is not instrumented.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "/metrics" {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
