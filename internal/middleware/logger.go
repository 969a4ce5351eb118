package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logger emits one access-log line per request. Health probes are
// skipped; they would drown everything else at the default interval.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	access := log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/healthz" {
			return
		}

		status := c.Writer.Status()
		event := access.Info()
		switch {
		case status >= 500:
			event = access.Error()
		case status >= 400:
			event = access.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.Writer.Header().Get(requestIDHeader)).
			Msg("request handled")
	}
}
