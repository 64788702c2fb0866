package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/infrastructure/logging"
	"github.com/artshin/app-log-service/internal/infrastructure/monitoring"
)

// RequestLogger logs request info and records metrics. The stream
// endpoint is skipped: its latency is the connection lifetime.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasSuffix(c.FullPath(), "/logs/stream") {
			c.Next()
			return
		}
		start := time.Now()
		reqID := c.GetString("request_id")
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logging.WithRequestID(logger, reqID).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
		monitoring.ObserveRequest(path, c.Request.Method, strconv.Itoa(status), latency.Seconds())
	}
}
