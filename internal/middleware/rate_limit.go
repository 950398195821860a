package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = time.Second
)

// RateCounter is the subset of the Redis client the limiter needs.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimitMiddleware limits requests per second per client IP using a Redis
// counter. A limit of zero or less disables it. Redis failures are logged and
// let the request through.
func RateLimitMiddleware(rdb RateCounter, limitPerSec int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limitPerSec <= 0 {
			c.Next()
			return
		}

		key := rateLimitKeyPrefix + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit counter failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
				logger.Warn("rate limit expiry failed", zap.String("key", key), zap.Error(err))
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limitPerSec))
		if count > int64(limitPerSec) {
			// A counter that lost its expiry would block the client for good.
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl < 0 {
				rdb.Expire(ctx, key, rateLimitWindow)
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
