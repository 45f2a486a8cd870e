package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// pollPaths are hit on a timer by scrapers and probes; they log at trace
// so a healthy display does not flood debug output.
var pollPaths = map[string]bool{
	"/metrics": true,
	"/health":  true,
	"/ready":   true,
}

// RequestLogger logs one event per admin request of the display node.
func RequestLogger(logger zerolog.Logger, node string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := routeLabel(c)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case pollPaths[path]:
			event = logger.Trace()
		default:
			event = logger.Debug()
		}

		event.
			Str("component", "server.admin").
			Str("node", node).
			Str("method", c.Request.Method).
			Str("route", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("admin request")
	}
}

// RequestMetricsMiddleware records admin traffic per route template.
func RequestMetricsMiddleware(node string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(node, c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

// routeLabel keeps metric cardinality bounded: unmatched paths share one
// label instead of echoing whatever a client requested.
func routeLabel(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
