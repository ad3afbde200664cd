package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "inventory:ratelimit:"

// RateLimiter is a fixed-window request counter per client IP, shared through Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	if rl.client == nil {
		c.Next()
		return
	}
	key := rateLimitKeyPrefix + c.ClientIP()

	// INCR and EXPIRE NX in one round trip so the first request of a window sets the expiry.
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(c.Request.Context(), key)
	pipe.ExpireNX(c.Request.Context(), key, rl.window)
	if _, err := pipe.Exec(c.Request.Context()); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if incr.Val() > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
