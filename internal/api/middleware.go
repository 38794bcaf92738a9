package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gc-distance/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, if any.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDHeader)
}

// requestLog returns a logger carrying the fields shared by every line
// logged for c.
func requestLog(c *gin.Context) *logger.Logger {
	l := logger.WithFields(map[string]interface{}{
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"client_ip": c.ClientIP(),
	})
	if id := GetRequestID(c); id != "" {
		l = l.WithField("request_id", id)
	}
	return l
}

// RequestLogger logs one line per request once the handlers have run.
// Server errors are logged at error level, client errors at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := requestLog(c).WithFields(map[string]interface{}{
			"status":  status,
			"latency": time.Since(start),
		})
		if q := c.Request.URL.RawQuery; q != "" {
			l = l.WithField("query", q)
		}
		if len(c.Errors) > 0 {
			l = l.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error(nil, "request")
		case status >= http.StatusBadRequest:
			l.Warn("request")
		default:
			l.Info("request")
		}
	}
}

// Recovery turns a handler panic into a 500. JSON routes get an error body
// so API clients see the same shape as other failures.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestLog(c).Error(nil, "panic recovered", "panic", recovered)
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
