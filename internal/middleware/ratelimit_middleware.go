// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"strconv"

	xerrors "funkard-admin-service/internal/pkg/errors"
	"funkard-admin-service/internal/pkg/metrics"
	"funkard-admin-service/internal/pkg/ratelimit"
	"funkard-admin-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP. If the limiter backend fails the
// request is let through and the failure logged.
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request",
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			metrics.RateLimitRejections.Inc()
			response.FromError(c, "too many requests, try again later", xerrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
