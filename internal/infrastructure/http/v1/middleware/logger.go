package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockroom/pkg/logger"
)

// Logger middleware puts the logger into the request context and logs each
// request once it completes, tagged with trace, operator and session ids.
// Server errors log at error level, client errors at warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()

		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if sessionID := c.Param("sessionId"); sessionID != "" {
			kv = append(kv, "session_id", sessionID)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.Last().Error())
		}

		reqLog := log.WithContext(ctx)
		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Errorw("http request", kv...)
		case status >= http.StatusBadRequest:
			reqLog.Warnw("http request", kv...)
		default:
			reqLog.Infow("http request", kv...)
		}
	}
}
