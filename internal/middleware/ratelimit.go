package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window limiter over Redis, keyed by tier name and
// client IP. With skipSuccessful set, only failed requests count toward the
// window, so a legitimate user logging in repeatedly is never locked out.
// Without a Redis client the limiter fails open.
func RateLimit(client *redis.Client, name string, max int, window time.Duration, skipSuccessful bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		key := "ratelimit:" + name + ":" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := client.Get(ctx, key).Int()
		if err != nil && err != redis.Nil {
			log.Printf("Rate limiter unavailable for %s: %v", name, err)
			c.Next()
			return
		}

		if count >= max {
			retryAfter := int64(window.Seconds())
			if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retryAfter = int64(ttl.Seconds())
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      true,
				"message":    message,
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()

		if skipSuccessful && c.Writer.Status() < http.StatusBadRequest {
			return
		}

		pipe := client.TxPipeline()
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("Rate limiter increment failed for %s: %v", name, err)
		}
	}
}

// The tiers mirror how expensive each route class is: AI routes call a paid
// upstream, auth routes are brute-force targets, signup is spam-prone.
func APILimiter(client *redis.Client) gin.HandlerFunc {
	return RateLimit(client, "api", 100, time.Minute, false,
		"Too many requests, please try again later.")
}

func AuthLimiter(client *redis.Client) gin.HandlerFunc {
	return RateLimit(client, "auth", 5, 15*time.Minute, true,
		"Too many login attempts, please try again after 15 minutes.")
}

func SignupLimiter(client *redis.Client) gin.HandlerFunc {
	return RateLimit(client, "signup", 5, time.Hour, false,
		"Too many accounts created from this IP, please try again after an hour.")
}

func AILimiter(client *redis.Client) gin.HandlerFunc {
	return RateLimit(client, "ai", 10, time.Minute, false,
		"Too many AI requests, please wait a moment before trying again.")
}
