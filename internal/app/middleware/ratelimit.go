package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artshin/app-log-service/internal/infrastructure/ratelimit"
	"github.com/artshin/app-log-service/pkg/response"
)

// RateLimit throttles producers per client IP. Viewers hitting
// snapshot and stream endpoints share the same budget, which is fine
// at log-ingestion rates.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		info, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
		if err == nil {
			setHeaders(c, info)
			if !info.Allowed {
				response.TooManyRequests(c, info.Reset)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func setHeaders(c *gin.Context, info ratelimit.RateLimitInfo) {
	c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	reset := time.Until(info.Reset)
	if reset < 0 {
		reset = 0
	}
	c.Writer.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.Reset.Unix(), 10))
	if !info.Allowed {
		c.Writer.Header().Set("Retry-After", strconv.Itoa(int(reset.Seconds())))
	}
}
