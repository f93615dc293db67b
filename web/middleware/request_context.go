package middleware

import (
	"time"

	"betlogic/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	loggerKey       = "logger"
)

// RequestContext assigns every request an id, echoes it in X-Request-ID and
// stores a child logger carrying it. A well-formed incoming id is reused.
func RequestContext(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !utils.ValidRequestID(requestID) {
			requestID = utils.GenerateRequestID()
		}
		reqLogger := logger.With(zap.String("request_id", requestID))

		c.Set(requestIDKey, requestID)
		c.Set(loggerKey, reqLogger)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		reqLogger.Info("Request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// LoggerFrom returns the request logger, or fallback outside RequestContext.
func LoggerFrom(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if logger, ok := value.(*zap.Logger); ok {
			return logger
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

// RequestIDFrom returns the id assigned by RequestContext.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
