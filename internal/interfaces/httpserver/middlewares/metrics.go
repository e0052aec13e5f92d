package middlewares

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/metrics"
)

// MetricsMiddleware records request counts, latency and in-flight requests. Chat streams are
// counted but not timed here.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isUnobserved(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		metrics.RequestsInFlight.Inc()
		defer metrics.RequestsInFlight.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		if isEventStream(c) {
			metrics.RecordStreamedRequest(c.Request.Method, endpoint, status)
			return
		}
		metrics.RecordRequest(c.Request.Method, endpoint, status, time.Since(start).Seconds())
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), eventStreamContentType)
}
