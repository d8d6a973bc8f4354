package middleware

import (
	"time"

	"example.com/campus/services/events/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics returns a gin middleware that records request counts, latency and
// error rates into the in-process collector.
func Metrics(collector *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		name := c.Request.Method + " " + c.FullPath()
		collector.IncrementCounter("http_requests")
		collector.RecordTimer(name, time.Since(start).Milliseconds())
		if c.Writer.Status() >= 500 {
			collector.RecordError(name)
		} else {
			collector.RecordSuccess(name)
		}
	}
}
