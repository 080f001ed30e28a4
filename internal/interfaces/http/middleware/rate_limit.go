// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const rateLimitWindow = time.Minute

// RateLimit allows perMinute requests per client IP in fixed one-minute windows.
// Requests are let through when Redis is unavailable.
func RateLimit(perMinute int, client *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	log := logger.WithField("component", "rate_limit")

	return func(c *gin.Context) {
		if perMinute <= 0 || client == nil {
			c.Next()
			return
		}

		window := time.Now().Truncate(rateLimitWindow)
		key := fmt.Sprintf("storefront:rate_limit:%s:%d", c.ClientIP(), window.Unix())

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rateLimitWindow)
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		count := int(incr.Val())
		reset := window.Add(rateLimitWindow)
		remaining := perMinute - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > perMinute {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please slow down.",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
