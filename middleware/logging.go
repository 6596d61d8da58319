package middleware

import (
	"fmt"
	"net/http"
	"time"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/metrics"
	"pizza-ordering-api/responses"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags the request context with the caller's X-Request-Id or a new one.
func RequestID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}

// Logging emits request.complete for every request and records its latency.
func Logging(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), elapsed)

		ctx := log.WithFields(c.Request.Context(), map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": elapsed.Milliseconds(),
		})
		log.Info(ctx, "request.complete")
	}
}

// Recovery turns a panic into a 500 with the standard error body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				ctx := log.WithField(c.Request.Context(), "panic", fmt.Sprint(rec))
				log.Error(ctx, "panic.recovered", err)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				responses.Error(c, nil, apperrors.Internal(err, "panic"))
			}
		}()
		c.Next()
	}
}

// CORS allows browser clients on other origins to call the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-Id")
		c.Header("Access-Control-Expose-Headers", "X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
