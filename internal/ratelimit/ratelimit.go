// Package ratelimit provides a Redis-backed fixed-window rate limiter for
// abuse-prone endpoints such as login and registration.
package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Limiter counts requests per client IP in fixed windows.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// New creates a limiter. A nil redis client disables limiting.
func New(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{rdb: rdb, limit: limit, window: window, prefix: "ratelimit"}
}

// Middleware rejects clients exceeding the window limit with 429.
// Redis outages fail open: limiting is protection, not a dependency.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.rdb == nil {
			c.Next()
			return
		}

		window := time.Now().UTC().Unix() / int64(l.window.Seconds())
		key := fmt.Sprintf("%s:%s:%d", l.prefix, c.ClientIP(), window)

		count, errIncr := l.rdb.Incr(c.Request.Context(), key).Result()
		if errIncr != nil {
			log.Warnf("rate limiter unavailable: %v", errIncr)
			c.Next()
			return
		}
		if count == 1 {
			l.rdb.Expire(c.Request.Context(), key, l.window)
		}
		if count > int64(l.limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
