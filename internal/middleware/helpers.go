// internal/middleware/helpers.go
package middleware

import (
	"funkard-admin-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// GetClaims returns the verified token claims, if any.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}

	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// Actor returns the principal name for audit history, or "" for an
// anonymous request; services substitute their default actor.
func Actor(c *gin.Context) string {
	return c.GetString(ctxActor)
}

// IsCron reports whether the request authenticated with the scheduler secret.
func IsCron(c *gin.Context) bool {
	return c.GetBool(ctxCron)
}

// RequestID returns the id assigned by LoggingMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
