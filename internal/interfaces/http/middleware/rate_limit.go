package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/esign/internal/infrastructure/ratelimit"
	"github.com/turtacn/esign/pkg/logger"
)

// RateLimit throttles each signed app independently. It must run after RequireSignature.
func RateLimit(pool *ratelimit.Pool, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		appID := c.GetString(ContextKeyAppID)
		bucket := pool.Bucket(appID)
		if bucket.Allow() {
			c.Next()
			return
		}

		retryAfter := bucket.RetryAfter()
		log.Warn(c.Request.Context(), "Rate limit exceeded", logger.Fields{
			"app_id":      appID,
			"retry_after": retryAfter.String(),
		})
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":    http.StatusTooManyRequests,
			"message": "rate limit exceeded",
		})
	}
}
