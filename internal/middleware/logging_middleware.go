package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/blockstate/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
type RequestLogger struct {
	log *logging.Logger
}

func NewRequestLogger(log *logging.Logger) *RequestLogger { return &RequestLogger{log: log} }

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rl.log.Debug("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, c.ClientIP(), traceID)

		c.Next()

		var extra string
		if o, ok := GetParseOutcome(c); ok {
			extra += fmt.Sprintf(" states=%d/%d", o.Parsed, o.Parsed+o.Failed)
		}
		if hit := c.Writer.Header().Get(CacheHeader); hit != "" {
			extra += " cache=" + hit
		}

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			rl.log.Warn("[HTTP] ◀ %s %s %d %s trace=%s%s", method, path, status, time.Since(start), traceID, extra)
			return
		}
		rl.log.Info("[HTTP] ◀ %s %s %d %s trace=%s%s", method, path, status, time.Since(start), traceID, extra)
	}
}
